package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/stitchnet/stitchnet-api/internal/cache"
	"github.com/stitchnet/stitchnet-api/internal/config"
	"github.com/stitchnet/stitchnet-api/internal/db"
	"github.com/stitchnet/stitchnet-api/internal/handlers"
	"github.com/stitchnet/stitchnet-api/internal/middleware"
	"github.com/stitchnet/stitchnet-api/internal/models"
	"github.com/stitchnet/stitchnet-api/internal/realtime"
	"github.com/stitchnet/stitchnet-api/internal/services/escrow"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Application{},
		&models.Contract{},
		&models.Notification{},
		&models.EscrowEntry{},
	); err != nil {
		log.Fatal(err)
	}

	rdb := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword)

	hub := realtime.NewHub()
	go hub.Run()

	esc := escrow.NewService(gdb)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	orderH := handlers.NewOrderHandler(gdb, rdb, hub, esc, cfg.UploadDir, cfg.AppBaseURL)
	appH := handlers.NewApplicationHandler(gdb, hub)
	contractH := handlers.NewContractHandler(gdb, rdb, hub, esc)
	profileH := handlers.NewProfileHandler(gdb, cfg.UploadDir, cfg.AppBaseURL)
	notifH := handlers.NewNotificationHandler(gdb)
	rtH := handlers.NewRealtimeHandler(hub, cfg.JWTSecret)

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "http://127.0.0.1:3000, http://localhost:3000",
		AllowMethods:  "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Length",
	}))

	app.Static("/uploads", cfg.UploadDir)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("StitchNet API is running")
	})

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/orders", orderH.ListOpen)

	// protected (JWT)
	protected := api.Group("/",
		middleware.JWTFromHeader(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	// orders
	protected.Post("/orders",
		middleware.RequireRoles("owner"),
		orderH.Create,
	)
	protected.Get("/orders/my",
		middleware.RequireRoles("owner"),
		orderH.ListMine,
	)
	protected.Patch("/orders/:orderId/status", orderH.UpdateStatus)

	// applications
	protected.Post("/orders/:orderId/apply",
		middleware.RequireRoles("worker"),
		appH.Apply,
	)
	protected.Get("/orders/applications",
		middleware.RequireRoles("owner"),
		appH.ListForOwner,
	)
	protected.Patch("/orders/applications/:appId/reject",
		middleware.RequireRoles("owner"),
		appH.Reject,
	)

	// contracts
	protected.Post("/contracts",
		middleware.RequireRoles("owner"),
		contractH.Create,
	)
	protected.Get("/contracts", contractH.List)
	protected.Post("/contracts/:contractId/sign", contractH.Sign)

	// profile
	protected.Get("/profile", profileH.Get)
	protected.Patch("/profile", profileH.Update)
	protected.Post("/profile/photo", profileH.UploadPhoto)

	// notifications
	protected.Get("/notifications", notifH.List)
	protected.Patch("/notifications/:id/read", notifH.MarkRead)

	// websocket feed (token via query param)
	app.Get("/ws/notifications", websocket.New(rtH.NotificationFeed))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
