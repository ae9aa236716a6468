package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/achat/internal/config"
	"github.com/example/achat/internal/handlers"
	"github.com/example/achat/internal/middleware"
	"github.com/example/achat/internal/models"
	"github.com/example/achat/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	fees := services.NewFeeService(db, cfg.DefaultDeliveryFee)
	agents := services.NewDefaultAgentPolicy(db)
	lifecycle := services.NewLifecycleService(db, fees, agents)

	authHandler := handlers.NewAuthHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, lifecycle)
	deliveryHandler := handlers.NewDeliveryHandler(db)
	storeHandler := handlers.NewStoreHandler(db)
	adminHandler := handlers.NewAdminHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Patch("/orders/:id/status", orderHandler.UpdateOrderStatus)

	protected.Post("/stores", middleware.RequireRole(models.RoleSeller, models.RoleAdmin), storeHandler.CreateStore)
	protected.Get("/stores", middleware.RequireRole(models.RoleSeller, models.RoleAdmin), storeHandler.ListMyStores)

	deliveries := protected.Group("/deliveries", middleware.RequireRole(models.RoleDeliveryAgent, models.RoleAdmin))
	deliveries.Get("/", deliveryHandler.ListAssigned)
	deliveries.Post("/:id/collect", deliveryHandler.CollectCOD)

	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Get("/stats", adminHandler.DashboardStats)
	admin.Get("/orders", adminHandler.ListAllOrders)
	admin.Get("/settings", adminHandler.GetSettings)
	admin.Put("/settings", adminHandler.UpdateSettings)
	admin.Get("/fee-rules", adminHandler.ListFeeRules)
	admin.Post("/fee-rules", adminHandler.CreateFeeRule)
}
