package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/repository"
	"github.com/harvestly/farm-market/internal/service"
)

// CheckoutHandler exposes order placement and payment intent endpoints
// on top of the checkout service.
type CheckoutHandler struct {
	Checkout *service.Checkout
}

func NewCheckoutHandler(svc *service.Checkout) *CheckoutHandler {
	if svc == nil {
		panic("nil checkout service passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Checkout: svc}
}

type placeOrderReq struct {
	Items          []service.CartLine `json:"items"`
	DeliveryMethod string             `json:"delivery_method"`
}

type guestCheckoutReq struct {
	placeOrderReq
	Guest service.GuestInfo `json:"guest_info"`
}

type intentReq struct {
	OrderID uint64 `json:"order_id"`
}

type checkoutResp struct {
	Order        *repository.OrderDetail `json:"order"`
	ClientSecret string                  `json:"client_secret"`
}

// PlaceOrder creates an order for the authenticated buyer: reserve
// inventory, write the order and ask the payment provider for an intent.
func (h *CheckoutHandler) PlaceOrder(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req placeOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := h.Checkout.PlaceOrder(ctx, uid, req.DeliveryMethod, req.Items)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(http.StatusCreated, checkoutResp{Order: res.Order, ClientSecret: res.ClientSecret})
}

// GuestCheckout places an order without a prior account.  A buyer
// account is created for the email (or reused) and the order is placed
// under it.
func (h *CheckoutHandler) GuestCheckout(c echo.Context) error {
	var req guestCheckoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, userID, err := h.Checkout.GuestCheckout(ctx, req.Guest, req.DeliveryMethod, req.Items)
	if err != nil {
		return checkoutError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order":         res.Order,
		"client_secret": res.ClientSecret,
		"user_id":       userID,
	})
}

// CreateIntent creates (or recreates) a payment intent for an existing
// unpaid order of the buyer.
func (h *CheckoutHandler) CreateIntent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req intentReq
	if err := c.Bind(&req); err != nil || req.OrderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := h.Checkout.AttachIntent(ctx, uid, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is already paid"})
		case errors.Is(err, service.ErrPaymentFailed):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create intent failed"})
	}
	return c.JSON(http.StatusOK, checkoutResp{Order: res.Order, ClientSecret: res.ClientSecret})
}

// ConfirmPayment marks one of the buyer's orders as paid once the
// client has completed the provider's payment flow.  Orders without an
// intent, or already in a terminal payment state, are rejected.
func (h *CheckoutHandler) ConfirmPayment(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Checkout.ConfirmPayment(ctx, uid, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is not awaiting payment"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm payment failed"})
	}
	return c.JSON(http.StatusOK, order)
}

// checkoutError maps checkout service errors onto HTTP responses.
func checkoutError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrBadQuantity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrItemInactive):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrProduceNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "produce item not found"})
	case errors.Is(err, repository.ErrInsufficientStock):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPaymentFailed):
		// Order exists but payment could not start; stock was released.
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
}
