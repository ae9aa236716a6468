package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/achat/internal/middleware"
	"github.com/example/achat/internal/models"
)

// StoreHandler manages seller store endpoints.
type StoreHandler struct {
	db *gorm.DB
}

// NewStoreHandler constructs StoreHandler.
func NewStoreHandler(db *gorm.DB) *StoreHandler {
	return &StoreHandler{db: db}
}

type createStoreRequest struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	Wilaya string `json:"wilaya"`
}

// CreateStore registers a store owned by the authenticated seller.
func (h *StoreHandler) CreateStore(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createStoreRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.City == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name and city are required")
	}

	store := models.Store{
		OwnerID: userID,
		Name:    req.Name,
		City:    req.City,
		Wilaya:  req.Wilaya,
		Active:  true,
	}

	if err := h.db.Create(&store).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": store})
}

// ListMyStores returns stores owned by the authenticated seller.
func (h *StoreHandler) ListMyStores(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var stores []models.Store
	if err := h.db.Where("owner_id = ?", userID).Find(&stores).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": stores})
}
