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

type produceReq struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	IsOrganic  bool   `json:"is_organic"`
	IsSeasonal bool   `json:"is_seasonal"`
	IsHeirloom bool   `json:"is_heirloom"`
	IsActive   *bool  `json:"is_active"`
}

type produceResp struct {
	ID         uint64 `json:"id"`
	FarmID     uint64 `json:"farm_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	IsOrganic  bool   `json:"is_organic"`
	IsSeasonal bool   `json:"is_seasonal"`
	IsHeirloom bool   `json:"is_heirloom"`
	IsActive   bool   `json:"is_active"`
}

func toProduceResp(p model.ProduceItem) produceResp {
	return produceResp{
		ID: p.ID, FarmID: p.FarmID, Name: p.Name, Category: p.Category,
		PriceCents: p.PriceCents, IsOrganic: p.IsOrganic,
		IsSeasonal: p.IsSeasonal, IsHeirloom: p.IsHeirloom, IsActive: p.IsActive,
	}
}

// ownsFarm resolves the farm and checks ownership, writing the error
// response itself.  Returns false when the request is already answered.
func (h *FarmerHandler) ownsFarm(c echo.Context, ctx context.Context, farmID, uid uint64) bool {
	_, err := h.Farms.GetByIDAndOwner(ctx, farmID, uid)
	if err == nil {
		return true
	}
	switch err {
	case repository.ErrFarmNotFound:
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "farm not found"})
	case repository.ErrForbidden:
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "not your farm"})
	default:
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return false
}

// CreateProduce adds a listing under one of the farmer's farms.  The
// inventory row is created alongside it with zero stock.
func (h *FarmerHandler) CreateProduce(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	farmID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid farm id"})
	}
	var req produceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PriceCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive price_cents required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.ownsFarm(c, ctx, farmID, uid) {
		return nil
	}

	p := model.ProduceItem{
		FarmID:     farmID,
		Name:       req.Name,
		Category:   strings.ToLower(strings.TrimSpace(req.Category)),
		PriceCents: req.PriceCents,
		IsOrganic:  req.IsOrganic,
		IsSeasonal: req.IsSeasonal,
		IsHeirloom: req.IsHeirloom,
		IsActive:   true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.Produce.Create(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create produce failed"})
	}
	return c.JSON(http.StatusCreated, toProduceResp(p))
}

// UpdateProduce modifies a listing owned (through its farm) by the farmer.
func (h *FarmerHandler) UpdateProduce(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid produce id"})
	}
	var req produceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	owner, err := h.Produce.OwnerOf(ctx, id)
	if err != nil {
		if err == repository.ErrProduceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "produce item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if owner != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your listing"})
	}

	p, err := h.Produce.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		p.Name = name
	}
	if cat := strings.ToLower(strings.TrimSpace(req.Category)); cat != "" {
		p.Category = cat
	}
	if req.PriceCents > 0 {
		p.PriceCents = req.PriceCents
	}
	p.IsOrganic = req.IsOrganic
	p.IsSeasonal = req.IsSeasonal
	p.IsHeirloom = req.IsHeirloom
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if err := h.Produce.Update(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update produce failed"})
	}
	return c.JSON(http.StatusOK, toProduceResp(p))
}

// DeleteProduce removes a listing.  Listings that appear in any order
// are deactivated instead of deleted so order history stays intact.
func (h *FarmerHandler) DeleteProduce(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid produce id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	owner, err := h.Produce.OwnerOf(ctx, id)
	if err != nil {
		if err == repository.ErrProduceNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "produce item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if owner != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your listing"})
	}

	if err := h.Produce.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete produce failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
