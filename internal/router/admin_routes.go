package router

import (
	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/handler"
	"github.com/harvestly/farm-market/internal/middleware"
	"github.com/harvestly/farm-market/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /api/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/refund-requests", a.PendingRefunds)
	g.POST("/refund-requests/:id/process", a.ProcessRefund)

	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id", a.SetUserActive)
}
