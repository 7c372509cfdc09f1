package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harvestly/farm-market/internal/model"
	"github.com/harvestly/farm-market/internal/payment"
	"github.com/harvestly/farm-market/internal/repository"
)

func newCheckoutWithMockDB(t *testing.T, pay *payment.Client) (*Checkout, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewCheckout(
		repository.NewOrderRepo(db),
		repository.NewInventoryRepo(db),
		repository.NewProduceRepo(db),
		repository.NewUserRepo(db),
		pay,
		500,
		bcrypt.MinCost,
	)
	return svc, mock
}

func produceRow(id, farmID uint64, priceCents int64, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "farm_id", "name", "category", "price_cents",
		"is_organic", "is_seasonal", "is_heirloom", "is_active", "created_at", "updated_at",
	}).AddRow(id, farmID, "Heirloom Tomato", "vegetable", priceCents, true, true, true, active, now, now)
}

func TestPlaceOrderRollsBackOnInsufficientStock(t *testing.T) {
	svc, mock := newCheckoutWithMockDB(t, payment.New("", ""))

	mock.ExpectQuery(`SELECT .+ FROM produce_items WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(produceRow(7, 2, 300, true))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(uint64(1), model.OrderPending, model.PaymentPending, int64(1500), int64(75), "pickup").
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(uint64(100), uint64(7), int64(5), int64(300), int64(1500)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// Conditional reserve matches no row, so the whole order rolls back.
	mock.ExpectExec(`UPDATE inventory`).
		WithArgs(int64(5), int64(5), uint64(7), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.PlaceOrder(context.Background(), 1, "pickup", []CartLine{{ProduceItemID: 7, Quantity: 5}})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderReleasesStockWhenPaymentFails(t *testing.T) {
	// A provider that always errors, after the reservation committed.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, mock := newCheckoutWithMockDB(t, payment.New("sk_test", srv.URL))

	mock.ExpectQuery(`SELECT .+ FROM produce_items WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(produceRow(7, 2, 300, true))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(uint64(1), model.OrderPending, model.PaymentPending, int64(600), int64(30), "delivery").
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(uint64(100), uint64(7), int64(2), int64(300), int64(600)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE inventory`).
		WithArgs(int64(2), int64(2), uint64(7), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Compensation: reservation released, order marked payment failed.
	mock.ExpectExec(`UPDATE inventory`).
		WithArgs(int64(2), int64(2), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE orders SET payment_status=\? WHERE id=\?`).
		WithArgs(model.PaymentFailed, uint64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.PlaceOrder(context.Background(), 1, "delivery", []CartLine{{ProduceItemID: 7, Quantity: 2}})
	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrderRejectsInactiveItem(t *testing.T) {
	svc, mock := newCheckoutWithMockDB(t, payment.New("", ""))

	mock.ExpectQuery(`SELECT .+ FROM produce_items WHERE id=\?`).
		WithArgs(uint64(7)).
		WillReturnRows(produceRow(7, 2, 300, false))

	_, err := svc.PlaceOrder(context.Background(), 1, "pickup", []CartLine{{ProduceItemID: 7, Quantity: 1}})
	assert.ErrorIs(t, err, ErrItemInactive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// hashWithCost matches a bcrypt hash whose embedded cost equals the
// expected value.
type hashWithCost struct{ cost int }

func (h hashWithCost) Match(v driver.Value) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	c, err := bcrypt.Cost([]byte(s))
	return err == nil && c == h.cost
}

func TestGuestCheckoutUsesConfiguredHashCost(t *testing.T) {
	svc, mock := newCheckoutWithMockDB(t, payment.New("", ""))

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email=\?`).
		WithArgs("guest@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO users \(email, password_hash, role\)`).
		WithArgs("guest@example.com", hashWithCost{cost: bcrypt.MinCost}, model.RoleBuyer).
		WillReturnResult(sqlmock.NewResult(42, 1))

	_, userID, err := svc.GuestCheckout(context.Background(),
		GuestInfo{Email: "Guest@Example.com"}, "pickup", nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.EqualValues(t, 42, userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
