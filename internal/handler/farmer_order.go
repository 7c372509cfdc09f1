package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/model"
	"github.com/harvestly/farm-market/internal/repository"
)

// FarmOrders lists every order containing at least one item from the
// given farm.  Only the farm's owner may see them.
func (h *FarmerHandler) FarmOrders(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	farmID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid farm id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, err := h.Orders.ListByFarmForOwner(ctx, farmID, uid)
	if err != nil {
		switch err {
		case repository.ErrFarmNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farm not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your farm"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, orders)
}

type orderStatusReq struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order through the fulfilment pipeline.  A
// farmer may only touch orders that include their produce, and only to
// a known status value.
func (h *FarmerHandler) UpdateOrderStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req orderStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !model.ValidOrderStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	// refunded is reserved for the admin refund flow.
	if status == model.OrderRefunded {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refunds go through refund requests"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Orders.UpdateStatusForOwner(ctx, orderID, uid, status); err != nil {
		switch err {
		case repository.ErrOrderNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "order has none of your produce"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}

	order, err := h.Orders.GetByID(ctx, orderID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, order)
}
