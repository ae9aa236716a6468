package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/achat/internal/middleware"
	"github.com/example/achat/internal/models"
	"github.com/example/achat/internal/utils"
)

// AdminHandler manages admin-only endpoints: dashboard stats, the full
// order list, platform settings and delivery fee rules.
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var totalRevenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status != ?", models.OrderStatusCancelled).
		Select("COALESCE(SUM(total), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	var totalCommission float64
	if err := h.db.Model(&models.Order{}).
		Select("COALESCE(SUM(platform_commission), 0)").
		Scan(&totalCommission).Error; err != nil {
		return err
	}

	var totalDeliveries int64
	if err := h.db.Model(&models.Delivery{}).Count(&totalDeliveries).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_orders":     totalOrders,
			"total_deliveries": totalDeliveries,
			"total_revenue":    totalRevenue,
			"total_commission": totalCommission,
			"orders_by_status": ordersByStatus,
		},
	})
}

// ListAllOrders returns all orders with pagination, filtering, and user info.
func (h *AdminHandler) ListAllOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if search := c.Query("search"); search != "" {
		query = query.Where(
			"order_number ILIKE ? OR shipping_wilaya ILIKE ?",
			"%"+search+"%", "%"+search+"%",
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").Preload("Delivery").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetSettings returns the current platform settings snapshot.
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	var settings models.PlatformSettings
	if err := h.db.Order("updated_at desc").First(&settings).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "platform settings not configured")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": settings})
}

type updateSettingsRequest struct {
	CommissionRate float64 `json:"commission_rate"`
}

// UpdateSettings stores a new settings snapshot. The commission calculator
// reads the latest record, so past orders keep the rate they were computed
// with.
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	adminID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.CommissionRate < 0 || req.CommissionRate > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "commission_rate must be between 0 and 100")
	}

	settings := models.PlatformSettings{
		CommissionRate: req.CommissionRate,
		UpdatedBy:      &adminID,
	}

	if err := h.db.Create(&settings).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": settings})
}

// ListFeeRules returns all delivery fee rules.
func (h *AdminHandler) ListFeeRules(c *fiber.Ctx) error {
	var rules []models.DeliveryFeeRule
	if err := h.db.Order("origin_city, wilaya").Find(&rules).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": rules})
}

type createFeeRuleRequest struct {
	OriginCity string  `json:"origin_city"`
	Wilaya     string  `json:"wilaya"`
	Amount     float64 `json:"amount"`
}

// CreateFeeRule adds a delivery fee rule for an origin city and destination
// wilaya.
func (h *AdminHandler) CreateFeeRule(c *fiber.Ctx) error {
	var req createFeeRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.OriginCity == "" || req.Wilaya == "" {
		return fiber.NewError(fiber.StatusBadRequest, "origin_city and wilaya are required")
	}
	if req.Amount < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "amount must not be negative")
	}

	rule := models.DeliveryFeeRule{
		OriginCity: req.OriginCity,
		Wilaya:     req.Wilaya,
		Amount:     req.Amount,
	}

	if err := h.db.Create(&rule).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": rule})
}
