package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/handler"
	"github.com/harvestly/farm-market/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /api/auth; /api/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh) // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not use the JWT middleware: it accepts either a
	// refresh_token in the body or a bearer token in the header.
	g.POST("/logout", a.Logout)

	auth := e.Group("/api", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse and plant
// identification endpoints.  The browse routes take the response cache
// middleware; pass nil to skip caching.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, v *handler.VisionHandler, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	g := e.Group("/api", mw...)
	g.GET("/farms", p.ListFarms)
	g.GET("/farms/:id", p.GetFarm)
	g.GET("/farms/:id/produce", p.FarmProduce)
	g.GET("/produce", p.SearchProduce)
	g.GET("/produce/:id", p.GetProduce)

	// POST responses are never cached.
	e.POST("/api/plant-id", v.Identify)
}
