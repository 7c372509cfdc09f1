package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/vision"
)

// VisionHandler exposes plant identification backed by the vision
// client and its cache.
type VisionHandler struct {
	Vision *vision.Client
}

func NewVisionHandler(v *vision.Client) *VisionHandler {
	if v == nil {
		panic("nil vision client passed to NewVisionHandler")
	}
	return &VisionHandler{Vision: v}
}

type plantIDReq struct {
	ImageBase64 string `json:"image_base64"`
}

// Identify names the plant on a base64-encoded photo.  Identical images
// are answered from the cache; provider outages degrade to a canned
// suggestion instead of an error.
func (h *VisionHandler) Identify(c echo.Context) error {
	var req plantIDReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ImageBase64 = strings.TrimSpace(req.ImageBase64)
	if req.ImageBase64 == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image_base64 required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	id, err := h.Vision.Identify(ctx, req.ImageBase64)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "identification failed"})
	}
	return c.JSON(http.StatusOK, id)
}
