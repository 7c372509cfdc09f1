package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints.  These
// routes sit behind the response cache middleware, so they only ever
// expose active farms and listings.
type PublicHandler struct {
	Farms     *repository.FarmRepo
	Produce   *repository.ProduceRepo
	Inventory *repository.InventoryRepo
}

func NewPublicHandler(farms *repository.FarmRepo, produce *repository.ProduceRepo, inv *repository.InventoryRepo) *PublicHandler {
	if farms == nil || produce == nil || inv == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Farms: farms, Produce: produce, Inventory: inv}
}

// ListFarms returns every active farm.
func (h *PublicHandler) ListFarms(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	farms, err := h.Farms.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]farmResp, 0, len(farms))
	for _, f := range farms {
		out = append(out, toFarmResp(f))
	}
	return c.JSON(http.StatusOK, out)
}

// GetFarm returns one active farm by id.
func (h *PublicHandler) GetFarm(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid farm id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Farms.GetByID(ctx, id)
	if err != nil || !f.IsActive {
		if err != nil && err != repository.ErrFarmNotFound {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "farm not found"})
	}
	return c.JSON(http.StatusOK, toFarmResp(f))
}

// FarmProduce lists a farm's active listings.
func (h *PublicHandler) FarmProduce(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid farm id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Farms.GetByID(ctx, id)
	if err != nil || !f.IsActive {
		if err != nil && err != repository.ErrFarmNotFound {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "farm not found"})
	}
	items, err := h.Produce.ListActiveByFarm(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]produceResp, 0, len(items))
	for _, p := range items {
		out = append(out, toProduceResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

// SearchProduce searches active listings by free-text query, category
// and organic/seasonal flags.
func (h *PublicHandler) SearchProduce(c echo.Context) error {
	f := repository.SearchFilter{
		Query:    strings.TrimSpace(c.QueryParam("q")),
		Category: strings.ToLower(strings.TrimSpace(c.QueryParam("category"))),
	}
	if s := c.QueryParam("organic"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			f.Organic = &b
		}
	}
	if s := c.QueryParam("seasonal"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			f.Seasonal = &b
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Produce.Search(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]produceResp, 0, len(items))
	for _, p := range items {
		out = append(out, toProduceResp(p))
	}
	return c.JSON(http.StatusOK, out)
}

// GetProduce returns one active listing together with its available
// quantity so the storefront can show stock.
func (h *PublicHandler) GetProduce(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid produce id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Produce.GetByID(ctx, id)
	if err != nil || !p.IsActive {
		if err != nil && err != repository.ErrProduceNotFound {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "produce item not found"})
	}
	var available int64
	if inv, err := h.Inventory.GetByProduceItem(ctx, id); err == nil {
		available = inv.QuantityAvailable
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item":               toProduceResp(p),
		"quantity_available": available,
	})
}
