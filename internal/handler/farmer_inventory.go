package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/repository"
)

type inventoryReq struct {
	QuantityAvailable int64  `json:"quantity_available"`
	QuantityReserved  *int64 `json:"quantity_reserved"`
}

type inventoryResp struct {
	ProduceItemID     uint64 `json:"produce_item_id"`
	QuantityAvailable int64  `json:"quantity_available"`
	QuantityReserved  int64  `json:"quantity_reserved"`
}

// GetInventory returns current stock for one of the farmer's listings.
func (h *FarmerHandler) GetInventory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	produceID, err := parseID(c, "produceItemId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid produce id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.ownsProduce(c, ctx, produceID, uid) {
		return nil
	}
	inv, err := h.Inventory.GetByProduceItem(ctx, produceID)
	if err != nil {
		if err == repository.ErrProduceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, inventoryResp{
		ProduceItemID:     inv.ProduceItemID,
		QuantityAvailable: inv.QuantityAvailable,
		QuantityReserved:  inv.QuantityReserved,
	})
}

// SetInventory overwrites the available quantity for a listing.  The
// reserved count is only touched when explicitly provided; reservations
// normally belong to the checkout flow alone.
func (h *FarmerHandler) SetInventory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	produceID, err := parseID(c, "produceItemId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid produce id"})
	}
	var req inventoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.QuantityAvailable < 0 || (req.QuantityReserved != nil && *req.QuantityReserved < 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantities must be non-negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.ownsProduce(c, ctx, produceID, uid) {
		return nil
	}
	if err := h.Inventory.Overwrite(ctx, produceID, req.QuantityAvailable, req.QuantityReserved); err != nil {
		if err == repository.ErrProduceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "inventory not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update inventory failed"})
	}
	inv, err := h.Inventory.GetByProduceItem(ctx, produceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, inventoryResp{
		ProduceItemID:     inv.ProduceItemID,
		QuantityAvailable: inv.QuantityAvailable,
		QuantityReserved:  inv.QuantityReserved,
	})
}

// ownsProduce checks the listing exists and belongs to the farmer,
// answering the request itself on failure.
func (h *FarmerHandler) ownsProduce(c echo.Context, ctx context.Context, produceID, uid uint64) bool {
	owner, err := h.Produce.OwnerOf(ctx, produceID)
	if err != nil {
		if err == repository.ErrProduceNotFound {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "produce item not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return false
	}
	if owner != uid {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "not your listing"})
		return false
	}
	return true
}
