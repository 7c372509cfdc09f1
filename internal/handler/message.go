package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/model"
	"github.com/harvestly/farm-market/internal/repository"
)

// MessageHandler serves the user-to-user mailbox.
type MessageHandler struct {
	Messages *repository.MessageRepo
	Users    *repository.UserRepo
}

func NewMessageHandler(messages *repository.MessageRepo, users *repository.UserRepo) *MessageHandler {
	if messages == nil || users == nil {
		panic("nil repository passed to NewMessageHandler")
	}
	return &MessageHandler{Messages: messages, Users: users}
}

type sendMessageReq struct {
	ReceiverID uint64 `json:"receiver_id"`
	Content    string `json:"content"`
}

type messageResp struct {
	ID         uint64    `json:"id"`
	SenderID   uint64    `json:"sender_id"`
	ReceiverID uint64    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// Send delivers a message to another user's mailbox.
func (h *MessageHandler) Send(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sendMessageReq
	if err := c.Bind(&req); err != nil || req.ReceiverID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receiver_id required"})
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	if req.ReceiverID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot message yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, req.ReceiverID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "receiver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	m := model.Message{SenderID: uid, ReceiverID: req.ReceiverID, Content: req.Content}
	if err := h.Messages.Create(ctx, &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send message failed"})
	}
	return c.JSON(http.StatusCreated, messageResp{
		ID: m.ID, SenderID: m.SenderID, ReceiverID: m.ReceiverID,
		Content: m.Content, IsRead: m.IsRead, CreatedAt: m.CreatedAt,
	})
}

// Inbox lists the caller's received messages, unread first.
func (h *MessageHandler) Inbox(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Messages.Inbox(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]messageResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResp{
			ID: m.ID, SenderID: m.SenderID, ReceiverID: m.ReceiverID,
			Content: m.Content, IsRead: m.IsRead, CreatedAt: m.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// MarkRead marks one of the caller's received messages as read.  Only
// the receiver may do this.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Messages.MarkRead(ctx, id, uid); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your message"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update message failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "marked read"})
}
