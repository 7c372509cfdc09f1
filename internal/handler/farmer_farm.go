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

// FarmerHandler bundles repositories for farmers to manage their farms,
// produce listings and inventory.
type FarmerHandler struct {
	Farms     *repository.FarmRepo
	Produce   *repository.ProduceRepo
	Inventory *repository.InventoryRepo
	Orders    *repository.OrderRepo
}

// NewFarmerHandler constructs a FarmerHandler and panics if any dependency is nil.
func NewFarmerHandler(farms *repository.FarmRepo, produce *repository.ProduceRepo, inv *repository.InventoryRepo, orders *repository.OrderRepo) *FarmerHandler {
	if farms == nil || produce == nil || inv == nil || orders == nil {
		panic("nil repository passed to NewFarmerHandler")
	}
	return &FarmerHandler{Farms: farms, Produce: produce, Inventory: inv, Orders: orders}
}

type farmReq struct {
	Name        string  `json:"name"`
	AddressLine *string `json:"address_line"`
	City        *string `json:"city"`
	Region      *string `json:"region"`
	IsOrganic   bool    `json:"is_organic"`
	IsActive    *bool   `json:"is_active"`
}

type farmResp struct {
	ID          uint64  `json:"id"`
	OwnerID     uint64  `json:"owner_id"`
	Name        string  `json:"name"`
	AddressLine *string `json:"address_line,omitempty"`
	City        *string `json:"city,omitempty"`
	Region      *string `json:"region,omitempty"`
	IsOrganic   bool    `json:"is_organic"`
	IsActive    bool    `json:"is_active"`
}

func toFarmResp(f model.Farm) farmResp {
	return farmResp{
		ID: f.ID, OwnerID: f.OwnerID, Name: f.Name,
		AddressLine: f.AddressLine, City: f.City, Region: f.Region,
		IsOrganic: f.IsOrganic, IsActive: f.IsActive,
	}
}

// CreateFarm registers a new farm owned by the authenticated farmer.
func (h *FarmerHandler) CreateFarm(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req farmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f := model.Farm{
		OwnerID:     uid,
		Name:        req.Name,
		AddressLine: req.AddressLine,
		City:        req.City,
		Region:      req.Region,
		IsOrganic:   req.IsOrganic,
		IsActive:    true,
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}
	if err := h.Farms.Create(ctx, &f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create farm failed"})
	}
	return c.JSON(http.StatusCreated, toFarmResp(f))
}

// MyFarms lists every farm of the authenticated farmer, active or not.
func (h *FarmerHandler) MyFarms(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	farms, err := h.Farms.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]farmResp, 0, len(farms))
	for _, f := range farms {
		out = append(out, toFarmResp(f))
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateFarm modifies a farm the authenticated farmer owns.
func (h *FarmerHandler) UpdateFarm(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid farm id"})
	}
	var req farmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Farms.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		switch err {
		case repository.ErrFarmNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farm not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your farm"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		f.Name = name
	}
	if req.AddressLine != nil {
		f.AddressLine = req.AddressLine
	}
	if req.City != nil {
		f.City = req.City
	}
	if req.Region != nil {
		f.Region = req.Region
	}
	f.IsOrganic = req.IsOrganic
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	if err := h.Farms.Update(ctx, &f, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update farm failed"})
	}
	return c.JSON(http.StatusOK, toFarmResp(f))
}

// DeleteFarm removes a farm with no order history; farms whose produce
// was ever ordered are kept and reported as a conflict.
func (h *FarmerHandler) DeleteFarm(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid farm id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Farms.Delete(ctx, id, uid); err != nil {
		switch err {
		case repository.ErrFarmNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "farm not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your farm"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "farm has order history; deactivate it instead"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete farm failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
