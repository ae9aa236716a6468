package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/achat/internal/middleware"
	"github.com/example/achat/internal/models"
	"github.com/example/achat/internal/utils"
)

// DeliveryHandler manages delivery-agent endpoints.
type DeliveryHandler struct {
	db *gorm.DB
}

// NewDeliveryHandler constructs DeliveryHandler.
func NewDeliveryHandler(db *gorm.DB) *DeliveryHandler {
	return &DeliveryHandler{db: db}
}

// ListAssigned returns deliveries assigned to the authenticated agent.
func (h *DeliveryHandler) ListAssigned(c *fiber.Ctx) error {
	agentID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("agent_id = ?", agentID).Model(&models.Delivery{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var deliveries []models.Delivery
	if err := query.Preload("Order").
		Order("assigned_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&deliveries).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    deliveries,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// CollectCOD marks the cash-on-delivery amount of a delivery as collected
// by the assigned agent.
func (h *DeliveryHandler) CollectCOD(c *fiber.Ctx) error {
	agentID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var delivery models.Delivery
	if err := h.db.First(&delivery, "id = ? AND agent_id = ?", id, agentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "delivery not found")
		}
		return err
	}

	if delivery.CODAmount == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "delivery has no COD amount to collect")
	}
	if delivery.CODCollected {
		return fiber.NewError(fiber.StatusConflict, "COD already collected")
	}

	now := time.Now()
	if err := h.db.Model(&delivery).Updates(map[string]any{
		"cod_collected":    true,
		"cod_collected_at": now,
	}).Error; err != nil {
		return err
	}
	delivery.CODCollected = true
	delivery.CODCollectedAt = &now

	return c.JSON(fiber.Map{"success": true, "data": delivery})
}
