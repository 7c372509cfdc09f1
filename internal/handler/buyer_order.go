package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/repository"
)

// BuyerHandler serves order history for authenticated buyers.
type BuyerHandler struct {
	Orders *repository.OrderRepo
}

func NewBuyerHandler(orders *repository.OrderRepo) *BuyerHandler {
	if orders == nil {
		panic("nil repository passed to NewBuyerHandler")
	}
	return &BuyerHandler{Orders: orders}
}

// MyOrders lists the buyer's orders, newest first, items included.
func (h *BuyerHandler) MyOrders(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListByBuyer(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder returns one of the buyer's orders.  Other users' orders are
// indistinguishable from missing ones.
func (h *BuyerHandler) GetOrder(c echo.Context) error {
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

	order, err := h.Orders.GetByIDForBuyer(ctx, id, uid)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, order)
}
