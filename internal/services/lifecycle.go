package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/achat/internal/models"
	"github.com/example/achat/internal/utils"
)

// deliveryStatusByOrderStatus projects order statuses onto the linked
// delivery. Order statuses without an entry leave the delivery untouched.
var deliveryStatusByOrderStatus = map[string]string{
	models.OrderStatusReadyForPickup: models.DeliveryStatusPending,
	models.OrderStatusOutForDelivery: models.DeliveryStatusInTransit,
	models.OrderStatusDelivered:      models.DeliveryStatusDelivered,
	models.OrderStatusCancelled:      models.DeliveryStatusFailed,
}

// LifecycleService validates and applies order status transitions and runs
// their side effects: delivery provisioning, delivery status sync and
// platform commission. The status write is the only authoritative step;
// side effects run after it commits and their failures are logged, never
// returned to the caller.
type LifecycleService struct {
	db     *gorm.DB
	fees   *FeeService
	agents AgentPolicy
}

// NewLifecycleService constructs a LifecycleService.
func NewLifecycleService(db *gorm.DB, fees *FeeService, agents AgentPolicy) *LifecycleService {
	return &LifecycleService{db: db, fees: fees, agents: agents}
}

// TransitionResult is returned on a successful transition.
type TransitionResult struct {
	Order      *models.Order
	Transition *models.OrderStatusHistory
}

// Transition validates and applies a status change requested by actorID
// acting under declaredRole. Validation errors carry a typed error; once
// the status write commits the call succeeds regardless of side-effect
// outcomes.
func (s *LifecycleService) Transition(orderID, actorID uuid.UUID, declaredRole, newStatus, note string) (*TransitionResult, error) {
	if newStatus == "" {
		return nil, &ValidationError{Message: "new status is required"}
	}
	if !models.IsValidOrderStatus(newStatus) {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown order status %q", newStatus)}
	}

	var order models.Order
	if err := s.db.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &NotFoundError{Resource: "order"}
		}
		return nil, err
	}

	role, err := ResolveEffectiveRole(s.db, &order, actorID, declaredRole)
	if err != nil {
		return nil, err
	}

	// Both checks run independently: a permitted status can still be
	// unreachable, and a reachable one can be forbidden for the role.
	if !RoleMayTarget(role, newStatus) {
		return nil, &PermissionError{Role: role, Target: newStatus}
	}
	if !CanTransition(order.Status, newStatus) {
		return nil, &TransitionError{From: order.Status, To: newStatus}
	}

	entry, err := s.apply(&order, newStatus, actorID, role, note)
	if err != nil {
		return nil, err
	}

	if newStatus == models.OrderStatusReadyForPickup {
		if err := s.provisionDelivery(&order); err != nil {
			log.Printf("[Lifecycle] delivery provisioning failed for order %s: %v", order.ID, err)
		}
	}
	if err := s.syncDeliveryStatus(&order); err != nil {
		log.Printf("[Lifecycle] delivery status sync failed for order %s: %v", order.ID, err)
	}
	if newStatus == models.OrderStatusDelivered {
		if err := s.computeCommission(&order); err != nil {
			log.Printf("[Lifecycle] commission computation failed for order %s: %v", order.ID, err)
		}
	}

	var updated models.Order
	if err := s.db.Preload("Items").
		Preload("StatusHistory", func(tx *gorm.DB) *gorm.DB { return tx.Order("seq asc") }).
		Preload("Delivery").
		First(&updated, "id = ?", order.ID).Error; err != nil {
		return nil, err
	}

	return &TransitionResult{Order: &updated, Transition: entry}, nil
}

// apply persists the validated transition: one history row appended and the
// order's status and audit fields updated, in a single transaction.
func (s *LifecycleService) apply(order *models.Order, to string, actorID uuid.UUID, role, note string) (*models.OrderStatusHistory, error) {
	entry := &models.OrderStatusHistory{
		OrderID:       order.ID,
		FromStatus:    order.Status,
		ToStatus:      to,
		ChangedBy:     actorID,
		ChangedByRole: role,
		Note:          note,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.OrderStatusHistory{}).
			Where("order_id = ?", order.ID).
			Count(&count).Error; err != nil {
			return err
		}
		entry.Seq = int(count) + 1

		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"status":          to,
			"last_updated_by": actorID,
			"updated_at":      time.Now(),
		}
		if role == models.RoleSeller && note != "" {
			updates["merchant_notes"] = note
		}
		if role == models.RoleDeliveryAgent && note != "" {
			updates["delivery_notes"] = note
		}

		return tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	order.Status = to
	order.LastUpdatedBy = &actorID
	return entry, nil
}

// provisionDelivery creates the delivery record for an order entering
// ready_for_pickup. It is a no-op when a delivery already exists; the
// unique index on order_id backs up this check under concurrency.
func (s *LifecycleService) provisionDelivery(order *models.Order) error {
	var existing models.Delivery
	err := s.db.Where("order_id = ?", order.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	agent, err := s.agents.AgentForOrder(order)
	if err != nil {
		return err
	}
	if agent == nil {
		log.Printf("[Lifecycle] no active delivery agent, skipping delivery provisioning for order %s", order.ID)
		return nil
	}

	var originCity string
	var store models.Store
	if err := s.db.First(&store, "id = ?", order.StoreID).Error; err == nil {
		originCity = store.City
	} else if err != gorm.ErrRecordNotFound {
		log.Printf("[Lifecycle] store lookup failed for order %s: %v, delivery fee falls back to default", order.ID, err)
	}

	trackingNumber, err := utils.GenerateTrackingNumber()
	if err != nil {
		return err
	}

	var codAmount float64
	if order.PaymentMethod == models.PaymentMethodCOD {
		codAmount = order.Total
	}

	delivery := models.Delivery{
		OrderID:           order.ID,
		AgentID:           agent.ID,
		Status:            models.DeliveryStatusPending,
		TrackingNumber:    trackingNumber,
		CODAmount:         codAmount,
		CODCollected:      false,
		DeliveryFee:       s.fees.FeeForRoute(originCity, order.ShippingWilaya),
		DestinationWilaya: order.ShippingWilaya,
		AssignedAt:        time.Now(),
	}

	if err := s.db.Create(&delivery).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a provisioning race; the winner's record stands.
			log.Printf("[Lifecycle] delivery already provisioned for order %s", order.ID)
			return nil
		}
		return err
	}
	return nil
}

// syncDeliveryStatus projects the order's status onto its delivery when one
// exists and the mapped value differs.
func (s *LifecycleService) syncDeliveryStatus(order *models.Order) error {
	mapped, ok := deliveryStatusByOrderStatus[order.Status]
	if !ok {
		return nil
	}

	var delivery models.Delivery
	err := s.db.Where("order_id = ?", order.ID).First(&delivery).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if delivery.Status == mapped {
		return nil
	}

	return s.db.Model(&delivery).Updates(map[string]any{
		"status":     mapped,
		"updated_at": time.Now(),
	}).Error
}

// computeCommission sets the platform commission for a delivered order from
// the current settings snapshot. The commission is write-once: the guarded
// update only lands while the column is still null. A zero rate or missing
// settings leaves it unset, so a later rate change never recomputes past
// orders.
func (s *LifecycleService) computeCommission(order *models.Order) error {
	var current models.Order
	if err := s.db.Select("platform_commission").First(&current, "id = ?", order.ID).Error; err != nil {
		return err
	}
	if current.PlatformCommission != nil {
		return nil
	}

	var settings models.PlatformSettings
	err := s.db.Order("updated_at desc").First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		log.Printf("[Lifecycle] no platform settings, commission left unset for order %s", order.ID)
		return nil
	}
	if err != nil {
		return err
	}
	if settings.CommissionRate <= 0 {
		log.Printf("[Lifecycle] commission rate is zero, commission left unset for order %s", order.ID)
		return nil
	}

	amount := order.Total * settings.CommissionRate / 100
	res := s.db.Model(&models.Order{}).
		Where("id = ? AND platform_commission IS NULL", order.ID).
		Updates(map[string]any{
			"platform_commission":      amount,
			"platform_commission_rate": settings.CommissionRate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("[Lifecycle] commission already set for order %s, skipping", order.ID)
	}
	return nil
}
