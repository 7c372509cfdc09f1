package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/harvestly/farm-market/internal/config"
	"github.com/harvestly/farm-market/internal/database"
	"github.com/harvestly/farm-market/internal/email"
	"github.com/harvestly/farm-market/internal/handler"
	"github.com/harvestly/farm-market/internal/middleware"
	"github.com/harvestly/farm-market/internal/payment"
	"github.com/harvestly/farm-market/internal/queue"
	"github.com/harvestly/farm-market/internal/repository"
	"github.com/harvestly/farm-market/internal/router"
	"github.com/harvestly/farm-market/internal/service"
	"github.com/harvestly/farm-market/internal/vision"
)

func main() {
	_ = godotenv.Load() // best effort; real deployments set the environment directly

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis backs the response cache, the rate limiter and the plant-id
	// cache.  A nil client degrades each of them gracefully.
	rdb := config.NewRedisClient()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	farms := repository.NewFarmRepo(db)
	produce := repository.NewProduceRepo(db)
	inventory := repository.NewInventoryRepo(db)
	orders := repository.NewOrderRepo(db)
	refunds := repository.NewRefundRepo(db)
	messages := repository.NewMessageRepo(db)

	// Provider clients; empty API keys switch them into mock mode.
	payments := payment.New(cfg.PaymentAPIKey, cfg.PaymentAPIURL)
	mailer := email.New(cfg.EmailAPIKey, cfg.EmailAPIURL, cfg.EmailFrom)
	plants := vision.New(cfg.VisionAPIKey, cfg.VisionAPIURL, vision.NewCache(rdb))

	checkout := service.NewCheckout(orders, inventory, produce, users, payments, cfg.PlatformFeeBps, cfg.BcryptCost)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	farmerH := handler.NewFarmerHandler(farms, produce, inventory, orders)
	publicH := handler.NewPublicHandler(farms, produce, inventory)
	checkoutH := handler.NewCheckoutHandler(checkout)
	buyerH := handler.NewBuyerHandler(orders)
	refundH := handler.NewRefundHandler(refunds, orders)
	adminH := handler.NewAdminHandler(refunds, orders, users, inventory, payments, mailer)
	messageH := handler.NewMessageHandler(messages, users)
	visionH := handler.NewVisionHandler(plants)

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, visionH, cacheMW)
	router.RegisterFarmer(e, farmerH, cfg.JWTSecret)
	router.RegisterBuyer(e, checkoutH, buyerH, refundH, messageH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Order/refund notifications are consumed off RabbitMQ in the
	// background; the consumer reconnects on its own.
	go queue.StartNotificationConsumer(mailer)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
