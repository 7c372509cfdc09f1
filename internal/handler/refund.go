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

// RefundHandler lets buyers and sellers file refund requests and view
// their own.  Approval happens in the admin handler.
type RefundHandler struct {
	Refunds *repository.RefundRepo
	Orders  *repository.OrderRepo
}

func NewRefundHandler(refunds *repository.RefundRepo, orders *repository.OrderRepo) *RefundHandler {
	if refunds == nil || orders == nil {
		panic("nil repository passed to NewRefundHandler")
	}
	return &RefundHandler{Refunds: refunds, Orders: orders}
}

type refundReq struct {
	OrderID     uint64 `json:"order_id"`
	AmountCents int64  `json:"amount_cents"` // 0 = full order total
	Reason      string `json:"reason"`
}

type refundResp struct {
	ID            uint64  `json:"id"`
	OrderID       uint64  `json:"order_id"`
	RequesterID   uint64  `json:"requester_id"`
	RequesterType string  `json:"requester_type"`
	AmountCents   int64   `json:"amount_cents"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	AdminNotes    *string `json:"admin_notes,omitempty"`
}

func toRefundResp(r model.RefundRequest) refundResp {
	return refundResp{
		ID: r.ID, OrderID: r.OrderID, RequesterID: r.RequesterID,
		RequesterType: r.RequesterType, AmountCents: r.AmountCents,
		Reason: r.Reason, Status: r.Status, AdminNotes: r.AdminNotes,
	}
}

// Create files a refund request.  The requester must be the order's
// buyer or a farmer whose produce the order contains; the amount can
// never exceed the order total.  One pending request per order.
func (h *RefundHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req refundReq
	if err := c.Bind(&req); err != nil || req.OrderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id required"})
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
	}
	if req.AmountCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be non-negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.GetByID(ctx, req.OrderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	var requesterType string
	switch {
	case order.BuyerID == uid:
		requesterType = model.RequesterBuyer
	default:
		sells, err := h.Orders.SellsToOrder(ctx, req.OrderID, uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !sells {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not a party to this order"})
		}
		requesterType = model.RequesterSeller
	}

	if order.PaymentStatus != model.PaymentPaid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order has no captured payment to refund"})
	}

	amount := req.AmountCents
	if amount == 0 {
		amount = order.TotalAmountCents
	}
	if amount > order.TotalAmountCents {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount exceeds order total"})
	}

	rr := model.RefundRequest{
		OrderID:       req.OrderID,
		RequesterID:   uid,
		RequesterType: requesterType,
		AmountCents:   amount,
		Reason:        req.Reason,
		Status:        model.RefundPending,
	}
	if err := h.Refunds.Create(ctx, &rr); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a pending refund request already exists for this order"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create refund request failed"})
	}
	return c.JSON(http.StatusCreated, toRefundResp(rr))
}

// Mine lists the caller's own refund requests, newest first.
func (h *RefundHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Refunds.ListByRequester(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]refundResp, 0, len(list))
	for _, r := range list {
		out = append(out, toRefundResp(r))
	}
	return c.JSON(http.StatusOK, out)
}
