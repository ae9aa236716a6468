package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/achat/internal/database"
	"github.com/example/achat/internal/models"
	"github.com/example/achat/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A pooled :memory: sqlite opens a fresh database per connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newLifecycle(db *gorm.DB, defaultFee float64) *services.LifecycleService {
	return services.NewLifecycleService(
		db,
		services.NewFeeService(db, defaultFee),
		services.NewDefaultAgentPolicy(db),
	)
}

func seedUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()
	user := models.User{
		FirstName: "Test",
		LastName:  role,
		Phone:     "0" + uuid.NewString(),
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedStore(t *testing.T, db *gorm.DB, owner models.User, city string) models.Store {
	t.Helper()
	store := models.Store{
		OwnerID: owner.ID,
		Name:    "Store " + city,
		City:    city,
		Active:  true,
	}
	require.NoError(t, db.Create(&store).Error)
	return store
}

func seedOrder(t *testing.T, db *gorm.DB, buyer models.User, store models.Store, status string, total float64, wilaya string) models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber:    "#" + uuid.NewString()[:8],
		UserID:         buyer.ID,
		StoreID:        store.ID,
		Status:         status,
		PlacedAt:       time.Now(),
		Subtotal:       total,
		Total:          total,
		PaymentMethod:  models.PaymentMethodCOD,
		ShippingWilaya: wilaya,
		Items: []models.OrderItem{
			{StoreID: store.ID, ProductName: "Widget", Quantity: 1, UnitPrice: total, LineTotal: total},
		},
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestSellerReadyForPickupProvisionsDelivery(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	agent := seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, seller, "Algiers")
	require.NoError(t, db.Create(&models.DeliveryFeeRule{OriginCity: "Algiers", Wilaya: "Oran", Amount: 800}).Error)

	order := seedOrder(t, db, buyer, store, models.OrderStatusAtMerchant, 4500, "Oran")

	result, err := svc.Transition(order.ID, seller.ID, models.RoleSeller, models.OrderStatusReadyForPickup, "packed and labelled")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusReadyForPickup, result.Order.Status)
	require.Equal(t, "packed and labelled", result.Order.MerchantNotes)
	require.Equal(t, models.RoleSeller, result.Transition.ChangedByRole)

	var delivery models.Delivery
	require.NoError(t, db.First(&delivery, "order_id = ?", order.ID).Error)
	require.Equal(t, models.DeliveryStatusPending, delivery.Status)
	require.Equal(t, agent.ID, delivery.AgentID)
	require.Equal(t, 4500.0, delivery.CODAmount)
	require.False(t, delivery.CODCollected)
	require.Equal(t, 800.0, delivery.DeliveryFee)
	require.Equal(t, "Oran", delivery.DestinationWilaya)
	require.True(t, strings.HasPrefix(delivery.TrackingNumber, "ACH-"))
}

func TestProvisioningIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	agent := seedUser(t, db, models.RoleDeliveryAgent)
	admin := seedUser(t, db, models.RoleAdmin)
	store := seedStore(t, db, seller, "Algiers")

	order := seedOrder(t, db, buyer, store, models.OrderStatusAtMerchant, 1000, "Blida")

	_, err := svc.Transition(order.ID, seller.ID, models.RoleSeller, models.OrderStatusReadyForPickup, "")
	require.NoError(t, err)

	var first models.Delivery
	require.NoError(t, db.First(&first, "order_id = ?", order.ID).Error)

	// Bounce the order out and back into ready_for_pickup.
	_, err = svc.Transition(order.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusWithDeliveryAgent, "")
	require.NoError(t, err)
	_, err = svc.Transition(order.ID, admin.ID, models.RoleAdmin, models.OrderStatusReadyForPickup, "")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Delivery{}).Where("order_id = ?", order.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var second models.Delivery
	require.NoError(t, db.First(&second, "order_id = ?", order.ID).Error)
	require.Equal(t, first.TrackingNumber, second.TrackingNumber)
}

func TestBuyerMayNotMarkDelivered(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusOutForDelivery, 1500, "Oran")

	_, err := svc.Transition(order.ID, buyer.ID, models.RoleBuyer, models.OrderStatusDelivered, "")
	var permissionErr *services.PermissionError
	require.ErrorAs(t, err, &permissionErr)
	require.Equal(t, models.RoleBuyer, permissionErr.Role)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	require.Equal(t, models.OrderStatusOutForDelivery, reloaded.Status)

	var historyCount int64
	require.NoError(t, db.Model(&models.OrderStatusHistory{}).Where("order_id = ?", order.ID).Count(&historyCount).Error)
	require.Zero(t, historyCount)
}

func TestAdminMayNotSkipStates(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	admin := seedUser(t, db, models.RoleAdmin)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusPending, 1500, "Oran")

	_, err := svc.Transition(order.ID, admin.ID, models.RoleAdmin, models.OrderStatusDelivered, "")
	var transitionErr *services.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	require.Equal(t, models.OrderStatusPending, transitionErr.From)
	require.Equal(t, models.OrderStatusDelivered, transitionErr.To)
}

func TestTerminalOrdersRejectEveryone(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	admin := seedUser(t, db, models.RoleAdmin)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusDelivered, 1500, "Oran")

	_, err := svc.Transition(order.ID, admin.ID, models.RoleAdmin, models.OrderStatusCancelled, "")
	var transitionErr *services.TransitionError
	require.ErrorAs(t, err, &transitionErr)
}

func TestStatusHistoryAppendsInOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusPending, 1500, "Oran")

	steps := []struct {
		actor  models.User
		role   string
		target string
	}{
		{buyer, models.RoleBuyer, models.OrderStatusConfirmed},
		{seller, models.RoleSeller, models.OrderStatusAtMerchant},
		{seller, models.RoleSeller, models.OrderStatusReadyForPickup},
	}

	for i, step := range steps {
		result, err := svc.Transition(order.ID, step.actor.ID, step.role, step.target, "")
		require.NoError(t, err)
		require.Equal(t, i+1, result.Transition.Seq)
		require.Equal(t, step.target, result.Order.Status)
	}

	var history []models.OrderStatusHistory
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("seq asc").Find(&history).Error)
	require.Len(t, history, len(steps))

	from := models.OrderStatusPending
	for i, entry := range history {
		require.Equal(t, i+1, entry.Seq)
		require.Equal(t, from, entry.FromStatus)
		require.Equal(t, steps[i].target, entry.ToStatus)
		from = entry.ToStatus
	}

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	require.Equal(t, history[len(history)-1].ToStatus, reloaded.Status)
}

func TestDeliveryStatusFollowsOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	agent := seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusAtMerchant, 2000, "Oran")

	_, err := svc.Transition(order.ID, seller.ID, models.RoleSeller, models.OrderStatusReadyForPickup, "")
	require.NoError(t, err)

	deliveryStatus := func() string {
		var delivery models.Delivery
		require.NoError(t, db.First(&delivery, "order_id = ?", order.ID).Error)
		return delivery.Status
	}

	// with_delivery_agent has no mapping: the delivery stays pending.
	_, err = svc.Transition(order.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusWithDeliveryAgent, "")
	require.NoError(t, err)
	require.Equal(t, models.DeliveryStatusPending, deliveryStatus())

	_, err = svc.Transition(order.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusOutForDelivery, "")
	require.NoError(t, err)
	require.Equal(t, models.DeliveryStatusInTransit, deliveryStatus())

	_, err = svc.Transition(order.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusDelivered, "on time")
	require.NoError(t, err)
	require.Equal(t, models.DeliveryStatusDelivered, deliveryStatus())

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	require.Equal(t, "on time", reloaded.DeliveryNotes)
}

func TestCancellationFailsDelivery(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusAtMerchant, 2000, "Oran")

	_, err := svc.Transition(order.ID, seller.ID, models.RoleSeller, models.OrderStatusReadyForPickup, "")
	require.NoError(t, err)
	_, err = svc.Transition(order.ID, seller.ID, models.RoleSeller, models.OrderStatusCancelled, "")
	require.NoError(t, err)

	var delivery models.Delivery
	require.NoError(t, db.First(&delivery, "order_id = ?", order.ID).Error)
	require.Equal(t, models.DeliveryStatusFailed, delivery.Status)
}

func TestNoAgentSkipsProvisioning(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusAtMerchant, 2000, "Oran")

	result, err := svc.Transition(order.ID, seller.ID, models.RoleSeller, models.OrderStatusReadyForPickup, "")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusReadyForPickup, result.Order.Status)

	var count int64
	require.NoError(t, db.Model(&models.Delivery{}).Where("order_id = ?", order.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestDefaultFeeWhenNoRuleMatches(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 650)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusAtMerchant, 2000, "Tamanrasset")

	_, err := svc.Transition(order.ID, seller.ID, models.RoleSeller, models.OrderStatusReadyForPickup, "")
	require.NoError(t, err)

	var delivery models.Delivery
	require.NoError(t, db.First(&delivery, "order_id = ?", order.ID).Error)
	require.Equal(t, 650.0, delivery.DeliveryFee)
}

func TestCommissionComputedOnDelivery(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	agent := seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, seller, "Algiers")
	require.NoError(t, db.Create(&models.PlatformSettings{CommissionRate: 10}).Error)

	order := seedOrder(t, db, buyer, store, models.OrderStatusOutForDelivery, 2000, "Oran")

	_, err := svc.Transition(order.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusDelivered, "")
	require.NoError(t, err)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	require.NotNil(t, reloaded.PlatformCommission)
	require.Equal(t, 200.0, *reloaded.PlatformCommission)
	require.NotNil(t, reloaded.PlatformCommissionRate)
	require.Equal(t, 10.0, *reloaded.PlatformCommissionRate)

	// A second delivered request hits the terminal-state check and the
	// commission stays as first computed.
	_, err = svc.Transition(order.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusDelivered, "")
	var transitionErr *services.TransitionError
	require.ErrorAs(t, err, &transitionErr)

	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	require.Equal(t, 200.0, *reloaded.PlatformCommission)
}

func TestZeroCommissionRateLeavesOrderUnset(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	agent := seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, seller, "Algiers")
	require.NoError(t, db.Create(&models.PlatformSettings{CommissionRate: 0}).Error)

	order := seedOrder(t, db, buyer, store, models.OrderStatusOutForDelivery, 2000, "Oran")

	_, err := svc.Transition(order.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusDelivered, "")
	require.NoError(t, err)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	require.Nil(t, reloaded.PlatformCommission)

	// Raising the rate later must not touch already delivered orders.
	require.NoError(t, db.Create(&models.PlatformSettings{CommissionRate: 5}).Error)
	require.NoError(t, db.First(&reloaded, "id = ?", order.ID).Error)
	require.Nil(t, reloaded.PlatformCommission)
}

func TestRateSnapshotTakenAtDeliveryTime(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	agent := seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, seller, "Algiers")
	require.NoError(t, db.Create(&models.PlatformSettings{CommissionRate: 10}).Error)

	first := seedOrder(t, db, buyer, store, models.OrderStatusOutForDelivery, 1000, "Oran")
	_, err := svc.Transition(first.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusDelivered, "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, db.Create(&models.PlatformSettings{CommissionRate: 20}).Error)

	second := seedOrder(t, db, buyer, store, models.OrderStatusOutForDelivery, 1000, "Oran")
	_, err = svc.Transition(second.ID, agent.ID, models.RoleDeliveryAgent, models.OrderStatusDelivered, "")
	require.NoError(t, err)

	var firstReloaded, secondReloaded models.Order
	require.NoError(t, db.First(&firstReloaded, "id = ?", first.ID).Error)
	require.NoError(t, db.First(&secondReloaded, "id = ?", second.ID).Error)
	require.Equal(t, 100.0, *firstReloaded.PlatformCommission)
	require.Equal(t, 200.0, *secondReloaded.PlatformCommission)
}

func TestTransitionRequestValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newLifecycle(db, 300)

	buyer := seedUser(t, db, models.RoleBuyer)
	seller := seedUser(t, db, models.RoleSeller)
	store := seedStore(t, db, seller, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusPending, 500, "Oran")

	var validationErr *services.ValidationError
	_, err := svc.Transition(order.ID, buyer.ID, models.RoleBuyer, "", "")
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Transition(order.ID, buyer.ID, models.RoleBuyer, "teleported", "")
	require.ErrorAs(t, err, &validationErr)

	var notFoundErr *services.NotFoundError
	_, err = svc.Transition(uuid.New(), buyer.ID, models.RoleBuyer, models.OrderStatusConfirmed, "")
	require.ErrorAs(t, err, &notFoundErr)
}

func TestEffectiveRoleResolution(t *testing.T) {
	db := newTestDB(t)

	buyer := seedUser(t, db, models.RoleBuyer)
	owner := seedUser(t, db, models.RoleBuyer) // declared buyer, owns the store
	agent := seedUser(t, db, models.RoleDeliveryAgent)
	store := seedStore(t, db, owner, "Algiers")
	order := seedOrder(t, db, buyer, store, models.OrderStatusPending, 500, "Oran")

	var loaded models.Order
	require.NoError(t, db.Preload("Items").First(&loaded, "id = ?", order.ID).Error)

	role, err := services.ResolveEffectiveRole(db, &loaded, owner.ID, models.RoleBuyer)
	require.NoError(t, err)
	require.Equal(t, models.RoleSeller, role)

	role, err = services.ResolveEffectiveRole(db, &loaded, buyer.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, models.RoleBuyer, role)

	role, err = services.ResolveEffectiveRole(db, &loaded, agent.ID, models.RoleDeliveryAgent)
	require.NoError(t, err)
	require.Equal(t, models.RoleDeliveryAgent, role)
}
