package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/harvestly/farm-market/internal/model"
	"github.com/harvestly/farm-market/internal/payment"
	"github.com/harvestly/farm-market/internal/queue"
	"github.com/harvestly/farm-market/internal/repository"
	"github.com/harvestly/farm-market/internal/utils"
)

// Checkout errors surfaced to handlers.  Inventory shortfalls propagate
// repository.ErrInsufficientStock; provider failures map to
// ErrPaymentFailed after the reservation has been compensated.
var (
	ErrEmptyCart     = errors.New("items are required")
	ErrBadQuantity   = errors.New("quantity must be positive")
	ErrItemInactive  = errors.New("produce item is not available")
	ErrPaymentFailed = errors.New("payment intent creation failed")
)

// CartLine is one requested cart entry.  Prices are never taken from the
// client; they are read from the produce table at checkout time.
type CartLine struct {
	ProduceItemID uint64 `json:"produce_item_id"`
	Quantity      int64  `json:"quantity"`
}

// CheckoutResult is what a successful checkout returns to the client.
type CheckoutResult struct {
	Order        *repository.OrderDetail
	ClientSecret string
}

// Checkout orchestrates the order/inventory/payment flow: validate the
// cart, write the order, its items and the inventory reservation in one
// database transaction, then create a payment intent.  If the provider
// call fails after the transaction committed, the reservation is
// released and the order is marked payment_status=failed instead of
// leaving stock silently burned.
type Checkout struct {
	Orders     *repository.OrderRepo
	Inventory  *repository.InventoryRepo
	Produce    *repository.ProduceRepo
	Users      *repository.UserRepo
	Payments   *payment.Client
	FeeBps     int
	BcryptCost int
	Currency   string
}

// NewCheckout wires a Checkout service.  All repositories and the
// payment client must be non-nil.  bcryptCost is used when guest
// checkout creates an account.
func NewCheckout(orders *repository.OrderRepo, inv *repository.InventoryRepo, produce *repository.ProduceRepo, users *repository.UserRepo, pay *payment.Client, feeBps, bcryptCost int) *Checkout {
	if orders == nil || inv == nil || produce == nil || users == nil || pay == nil {
		panic("nil dependency passed to NewCheckout")
	}
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Checkout{
		Orders:     orders,
		Inventory:  inv,
		Produce:    produce,
		Users:      users,
		Payments:   pay,
		FeeBps:     feeBps,
		BcryptCost: bcryptCost,
		Currency:   "usd",
	}
}

// normalizeLines validates the cart and merges duplicate produce item
// entries, returning lines in a deterministic order.
func normalizeLines(lines []CartLine) ([]CartLine, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	merged := make(map[uint64]int64, len(lines))
	for _, l := range lines {
		if l.ProduceItemID == 0 || l.Quantity <= 0 {
			return nil, ErrBadQuantity
		}
		merged[l.ProduceItemID] += l.Quantity
	}
	out := make([]CartLine, 0, len(merged))
	for id, qty := range merged {
		out = append(out, CartLine{ProduceItemID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProduceItemID < out[j].ProduceItemID })
	return out, nil
}

// orderTotal sums the line totals of priced items.
func orderTotal(items []model.OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.TotalPriceCents
	}
	return total
}

// PlaceOrder runs the full checkout for an authenticated buyer and
// returns the created order with the payment client secret.
func (s *Checkout) PlaceOrder(ctx context.Context, buyerID uint64, deliveryMethod string, lines []CartLine) (*CheckoutResult, error) {
	lines, err := normalizeLines(lines)
	if err != nil {
		return nil, err
	}
	deliveryMethod = strings.ToLower(strings.TrimSpace(deliveryMethod))
	if deliveryMethod != "delivery" {
		deliveryMethod = "pickup"
	}

	// Price every line from the produce table before touching the DB
	// for writes; inactive listings reject the whole cart.
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, err := s.Produce.GetByID(ctx, l.ProduceItemID)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, fmt.Errorf("%w: item %d", ErrItemInactive, p.ID)
		}
		items = append(items, model.OrderItem{
			ProduceItemID:     p.ID,
			Quantity:          l.Quantity,
			PricePerUnitCents: p.PriceCents,
			TotalPriceCents:   l.Quantity * p.PriceCents,
		})
	}
	total := orderTotal(items)
	fee, _ := utils.PlatformFee(total, s.FeeBps)

	order := &model.Order{
		BuyerID:          buyerID,
		Status:           model.OrderPending,
		PaymentStatus:    model.PaymentPending,
		TotalAmountCents: total,
		PlatformFeeCents: fee,
		DeliveryMethod:   deliveryMethod,
	}

	tx, err := s.Orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.Orders.CreateTx(ctx, tx, order); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := s.Orders.CreateItemsBulkTx(ctx, tx, items); err != nil {
		return nil, err
	}
	// Reserve per line; any shortfall rolls the whole order back, so a
	// multi-item cart can never leave partial reservations behind.
	for _, l := range lines {
		if err := s.Inventory.ReserveTx(ctx, tx, l.ProduceItemID, l.Quantity); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w for item %d", repository.ErrInsufficientStock, l.ProduceItemID)
			}
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	intent, err := s.Payments.CreateIntent(ctx, total, s.Currency, order.ID)
	if err != nil {
		s.compensate(ctx, order.ID, lines)
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if err := s.Orders.SetPaymentRef(ctx, order.ID, intent.ID); err != nil {
		log.Printf("checkout: failed to store payment ref for order %d: %v", order.ID, err)
	}

	s.publishConfirmed(ctx, order, len(items), intent.ID)

	detail, err := s.Orders.GetByIDForBuyer(ctx, order.ID, buyerID)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{Order: detail, ClientSecret: intent.ClientSecret}, nil
}

// GuestInfo identifies a guest checkout customer.
type GuestInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// GuestCheckout creates (or reuses) a buyer account for the guest email
// and runs the regular checkout under it.  Submitting the same email
// twice always reuses the first account.
func (s *Checkout) GuestCheckout(ctx context.Context, guest GuestInfo, deliveryMethod string, lines []CartLine) (*CheckoutResult, uint64, error) {
	email := strings.ToLower(strings.TrimSpace(guest.Email))
	if email == "" {
		return nil, 0, errors.New("guest email is required")
	}
	pw, err := utils.RandomPassword()
	if err != nil {
		return nil, 0, err
	}
	userID, created, err := s.Users.EnsureGuest(ctx, email, pw, s.BcryptCost)
	if err != nil {
		return nil, 0, err
	}
	if created {
		log.Printf("checkout: created guest account %d for %s", userID, email)
	}
	res, err := s.PlaceOrder(ctx, userID, deliveryMethod, lines)
	if err != nil {
		return nil, userID, err
	}
	return res, userID, nil
}

// AttachIntent creates a payment intent for an existing order of the
// buyer that is still awaiting payment, and stores the reference.
func (s *Checkout) AttachIntent(ctx context.Context, buyerID, orderID uint64) (*CheckoutResult, error) {
	detail, err := s.Orders.GetByIDForBuyer(ctx, orderID, buyerID)
	if err != nil {
		return nil, err
	}
	if detail.PaymentStatus == model.PaymentPaid || detail.PaymentStatus == model.PaymentRefunded {
		return nil, repository.ErrConflict
	}
	intent, err := s.Payments.CreateIntent(ctx, detail.TotalAmountCents, s.Currency, detail.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if err := s.Orders.SetPaymentRef(ctx, detail.ID, intent.ID); err != nil {
		log.Printf("checkout: failed to store payment ref for order %d: %v", detail.ID, err)
	}
	ref := intent.ID
	detail.PaymentRef = &ref
	return &CheckoutResult{Order: detail, ClientSecret: intent.ClientSecret}, nil
}

// ConfirmPayment records that the buyer completed the provider's
// payment flow for an intent-bearing order, moving it to paid and
// confirmed.  Success is client-reported; there is no webhook loop.
func (s *Checkout) ConfirmPayment(ctx context.Context, buyerID, orderID uint64) (*repository.OrderDetail, error) {
	if err := s.Orders.ConfirmPaymentForBuyer(ctx, orderID, buyerID); err != nil {
		return nil, err
	}
	return s.Orders.GetByIDForBuyer(ctx, orderID, buyerID)
}

// compensate releases a committed reservation after a payment failure
// and marks the order accordingly.  Each step is best effort and
// logged; manual reconciliation is never required for stock.
func (s *Checkout) compensate(ctx context.Context, orderID uint64, lines []CartLine) {
	for _, l := range lines {
		if err := s.Inventory.Release(ctx, l.ProduceItemID, l.Quantity); err != nil {
			log.Printf("checkout: failed to release %d units of item %d for order %d: %v",
				l.Quantity, l.ProduceItemID, orderID, err)
		}
	}
	if err := s.Orders.SetPaymentStatus(ctx, orderID, model.PaymentFailed); err != nil {
		log.Printf("checkout: failed to mark order %d payment failed: %v", orderID, err)
	}
}

func (s *Checkout) publishConfirmed(ctx context.Context, order *model.Order, itemCount int, paymentRef string) {
	buyerEmail := ""
	if u, err := s.Users.GetByID(ctx, order.BuyerID); err == nil {
		buyerEmail = u.Email
	}
	ev := queue.OrderConfirmedEvent{
		OrderID:          order.ID,
		BuyerID:          order.BuyerID,
		BuyerEmail:       buyerEmail,
		TotalAmountCents: order.TotalAmountCents,
		PlatformFeeCents: order.PlatformFeeCents,
		DeliveryMethod:   order.DeliveryMethod,
		ItemCount:        itemCount,
		PaymentRef:       paymentRef,
		ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	_ = PublishOrderConfirmed(ctx, ev) // best effort
}
