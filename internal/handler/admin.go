package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/email"
	"github.com/harvestly/farm-market/internal/model"
	"github.com/harvestly/farm-market/internal/payment"
	"github.com/harvestly/farm-market/internal/queue"
	"github.com/harvestly/farm-market/internal/repository"
	"github.com/harvestly/farm-market/internal/service"
)

// AdminHandler serves the back-office endpoints: refund processing and
// user management.
type AdminHandler struct {
	Refunds   *repository.RefundRepo
	Orders    *repository.OrderRepo
	Users     *repository.UserRepo
	Inventory *repository.InventoryRepo
	Payments  *payment.Client
	Mailer    *email.Client
}

func NewAdminHandler(refunds *repository.RefundRepo, orders *repository.OrderRepo, users *repository.UserRepo, inv *repository.InventoryRepo, pay *payment.Client, mailer *email.Client) *AdminHandler {
	if refunds == nil || orders == nil || users == nil || inv == nil || pay == nil || mailer == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Refunds: refunds, Orders: orders, Users: users, Inventory: inv, Payments: pay, Mailer: mailer}
}

// PendingRefunds lists every refund request awaiting a decision.
func (h *AdminHandler) PendingRefunds(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Refunds.ListPending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]refundResp, 0, len(list))
	for _, r := range list {
		out = append(out, toRefundResp(r))
	}
	return c.JSON(http.StatusOK, out)
}

type processRefundReq struct {
	Action     string  `json:"action"` // approve | decline
	AdminNotes *string `json:"admin_notes"`
}

// ProcessRefund approves or declines a pending refund request.  The
// decision and the order's refunded flags land in one transaction, so
// a concurrent second decision loses cleanly.  The provider refund,
// notification email and queue event run after commit and are best
// effort.
func (h *AdminHandler) ProcessRefund(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid refund request id"})
	}
	var req processRefundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action != "approve" && action != "decline" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be approve or decline"})
	}
	status := model.RefundDeclined
	if action == "approve" {
		status = model.RefundApproved
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	rr, err := h.Refunds.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "refund request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	tx, err := h.Refunds.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Refunds.ProcessTx(ctx, tx, id, status, req.AdminNotes); err != nil {
		if err == repository.ErrAlreadyProcessed {
			return c.JSON(http.StatusConflict, echo.Map{"error": "refund request already processed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "process refund failed"})
	}
	if status == model.RefundApproved {
		if err := h.Orders.MarkRefundedTx(ctx, tx, rr.OrderID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark order refunded failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	if status == model.RefundApproved {
		h.settleApproved(ctx, rr)
	}
	h.notifyRequester(ctx, rr, action)

	rr.Status = status
	rr.AdminNotes = req.AdminNotes
	return c.JSON(http.StatusOK, toRefundResp(rr))
}

// settleApproved performs the post-commit side effects of an approval:
// refund at the provider and return of the reserved stock.
func (h *AdminHandler) settleApproved(ctx context.Context, rr model.RefundRequest) {
	order, err := h.Orders.GetByID(ctx, rr.OrderID)
	if err != nil {
		log.Printf("admin: load order %d after refund approval: %v", rr.OrderID, err)
		return
	}
	if order.PaymentRef != nil {
		if _, err := h.Payments.CreateRefund(ctx, *order.PaymentRef, rr.AmountCents); err != nil {
			log.Printf("admin: provider refund for order %d failed: %v", rr.OrderID, err)
		}
	}
	quantities, err := h.Orders.ItemQuantities(ctx, rr.OrderID)
	if err != nil {
		log.Printf("admin: load item quantities for order %d: %v", rr.OrderID, err)
		return
	}
	for produceID, qty := range quantities {
		if err := h.Inventory.Release(ctx, produceID, qty); err != nil {
			log.Printf("admin: release %d units of item %d: %v", qty, produceID, err)
		}
	}
}

// notifyRequester emails the requester and publishes the queue event.
func (h *AdminHandler) notifyRequester(ctx context.Context, rr model.RefundRequest, action string) {
	requesterEmail := ""
	if u, err := h.Users.GetByID(ctx, rr.RequesterID); err == nil {
		requesterEmail = u.Email
	}
	if requesterEmail != "" {
		subject := fmt.Sprintf("Refund request #%d %sd", rr.ID, action)
		body := fmt.Sprintf("<p>Your refund request for order #%d has been %sd.</p>", rr.OrderID, action)
		if err := h.Mailer.Send(ctx, requesterEmail, subject, body); err != nil {
			log.Printf("admin: refund email to %s failed: %v", requesterEmail, err)
		}
	}
	_ = service.PublishRefundProcessed(ctx, queue.RefundProcessedEvent{
		RefundRequestID: rr.ID,
		OrderID:         rr.OrderID,
		RequesterEmail:  requesterEmail,
		AmountCents:     rr.AmountCents,
		Action:          action + "d",
		ProcessedAt:     time.Now().UTC().Format(time.RFC3339),
	})
}

type adminUserResp struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// ListUsers returns every account.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResp{ID: u.ID, Email: u.Email, Role: u.Role, IsActive: u.IsActive})
	}
	return c.JSON(http.StatusOK, out)
}

type setActiveReq struct {
	IsActive *bool `json:"is_active"`
}

// SetUserActive activates or deactivates an account.  Admins cannot
// deactivate themselves.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req setActiveReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active required"})
	}
	if id == uid && !*req.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot deactivate your own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetActive(ctx, id, *req.IsActive); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, adminUserResp{ID: u.ID, Email: u.Email, Role: u.Role, IsActive: u.IsActive})
}
