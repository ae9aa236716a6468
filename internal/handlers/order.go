package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/achat/internal/middleware"
	"github.com/example/achat/internal/models"
	"github.com/example/achat/internal/services"
	"github.com/example/achat/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db        *gorm.DB
	lifecycle *services.LifecycleService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, lifecycle *services.LifecycleService) *OrderHandler {
	return &OrderHandler{db: db, lifecycle: lifecycle}
}

type orderItemRequest struct {
	StoreID     string  `json:"store_id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type createOrderRequest struct {
	StoreID         string             `json:"store_id"`
	PaymentMethod   string             `json:"payment_method"`
	ShippingAddress string             `json:"shipping_address"`
	ShippingCity    string             `json:"shipping_city"`
	ShippingWilaya  string             `json:"shipping_wilaya"`
	Items           []orderItemRequest `json:"items"`
	Total           float64            `json:"total"`
}

// CreateOrder allows authenticated users to place a cash-on-delivery order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid store_id")
	}

	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order must contain at least one item")
	}
	if req.ShippingWilaya == "" {
		return fiber.NewError(fiber.StatusBadRequest, "shipping_wilaya is required")
	}

	var store models.Store
	if err := h.db.First(&store, "id = ?", storeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "store not found")
		}
		return err
	}

	order := models.Order{
		UserID:          userID,
		StoreID:         store.ID,
		Status:          models.OrderStatusPending,
		PlacedAt:        time.Now(),
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingWilaya:  req.ShippingWilaya,
	}

	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentMethodCOD
	}

	var subtotal float64
	for _, p := range req.Items {
		lineTotal := p.LineTotal
		if lineTotal == 0 {
			lineTotal = p.UnitPrice * float64(p.Quantity)
		}

		item := models.OrderItem{
			StoreID:     store.ID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
			LineTotal:   lineTotal,
		}

		if p.StoreID != "" {
			if id, err := uuid.Parse(p.StoreID); err == nil {
				item.StoreID = id
			}
		}
		if p.ProductID != "" {
			if id, err := uuid.Parse(p.ProductID); err == nil {
				item.ProductID = &id
			}
		}

		subtotal += item.LineTotal
		order.Items = append(order.Items, item)
	}

	order.Subtotal = subtotal
	order.Total = req.Total
	if order.Total == 0 {
		order.Total = subtotal
	}

	if order.OrderNumber == "" {
		order.OrderNumber = h.generateOrderNumber()
	}

	if err := h.db.Create(&order).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"placed_at":    order.PlacedAt,
			"total":        order.Total,
		},
	})
}

type updateStatusRequest struct {
	NewStatus string `json:"new_status"`
	Notes     string `json:"notes"`
}

// UpdateOrderStatus applies a lifecycle transition to an order on behalf of
// the authenticated caller.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	role, _ := middleware.GetCurrentUserRole(c)

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.NewStatus == "" {
		return fiber.NewError(fiber.StatusBadRequest, "new_status is required")
	}

	result, err := h.lifecycle.Transition(orderID, userID, role, req.NewStatus, req.Notes)
	if err != nil {
		var validationErr *services.ValidationError
		var permissionErr *services.PermissionError
		var transitionErr *services.TransitionError
		var notFoundErr *services.NotFoundError

		switch {
		case errors.As(err, &validationErr):
			return fiber.NewError(fiber.StatusBadRequest, validationErr.Error())
		case errors.As(err, &permissionErr):
			return fiber.NewError(fiber.StatusForbidden, permissionErr.Error())
		case errors.As(err, &transitionErr):
			return fiber.NewError(fiber.StatusBadRequest, transitionErr.Error())
		case errors.As(err, &notFoundErr):
			return fiber.NewError(fiber.StatusNotFound, notFoundErr.Error())
		default:
			return err
		}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"order":      result.Order,
		"transition": result.Transition,
	})
}

// ListOrders returns orders for the authenticated user.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("user_id = ?", userID).Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
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

// GetOrder returns a single order for the authenticated user, including its
// transition history and delivery.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").
		Preload("StatusHistory", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq asc") }).
		Preload("Delivery").
		First(&order, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

func (h *OrderHandler) generateOrderNumber() string {
	return fmt.Sprintf("#%d", time.Now().UnixNano()%1000000000)
}
