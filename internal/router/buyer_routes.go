package router

import (
	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/handler"
	"github.com/harvestly/farm-market/internal/middleware"
)

// RegisterBuyer registers the order, payment, refund and mailbox
// endpoints under /api.  Checkout and refunds stay open to any
// authenticated role so farmers can buy from each other; guest checkout
// needs no token at all.
func RegisterBuyer(e *echo.Echo, co *handler.CheckoutHandler, b *handler.BuyerHandler, r *handler.RefundHandler, m *handler.MessageHandler, jwtSecret string) {
	e.POST("/api/guest-checkout", co.GuestCheckout)

	g := e.Group("/api", middleware.JWTAuth(jwtSecret))

	// ---- Checkout ----
	g.POST("/orders", co.PlaceOrder)
	g.POST("/create-payment-intent", co.CreateIntent)
	g.POST("/orders/:id/confirm-payment", co.ConfirmPayment)

	// ---- Orders ----
	g.GET("/my-orders", b.MyOrders)
	g.GET("/orders/:id", b.GetOrder)

	// ---- Refund requests ----
	g.POST("/refund-requests", r.Create)
	g.GET("/refund-requests", r.Mine)

	// ---- Messages ----
	g.POST("/messages", m.Send)
	g.GET("/messages", m.Inbox)
	g.PATCH("/messages/:id/read", m.MarkRead)
}
