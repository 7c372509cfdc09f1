package router

import (
	"github.com/labstack/echo/v4"

	"github.com/harvestly/farm-market/internal/handler"
	"github.com/harvestly/farm-market/internal/middleware"
	"github.com/harvestly/farm-market/internal/model"
)

// RegisterFarmer registers FARMER-scoped endpoints under /api.  All
// routes require a valid JWT and the FARMER role.  Farmers manage their
// farms, listings and stock, and move their orders through fulfilment.
func RegisterFarmer(e *echo.Echo, f *handler.FarmerHandler, jwtSecret string) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleFarmer),
	)

	// ---- Farms ----
	g.POST("/farms", f.CreateFarm)
	g.GET("/my-farms", f.MyFarms)
	g.PUT("/farms/:id", f.UpdateFarm)
	g.PATCH("/farms/:id", f.UpdateFarm)
	g.DELETE("/farms/:id", f.DeleteFarm)

	// ---- Produce ----
	g.POST("/farms/:id/produce", f.CreateProduce)
	g.PUT("/produce/:id", f.UpdateProduce)
	g.PATCH("/produce/:id", f.UpdateProduce)
	g.DELETE("/produce/:id", f.DeleteProduce)

	// ---- Inventory ----
	g.GET("/inventory/:produceItemId", f.GetInventory)
	g.PUT("/inventory/:produceItemId", f.SetInventory)

	// ---- Orders ----
	g.GET("/farms/:id/orders", f.FarmOrders)
	g.PATCH("/orders/:id/status", f.UpdateOrderStatus)
}
