package models

// Order lifecycle statuses.
const (
	OrderStatusPending           = "pending"
	OrderStatusPaymentPending    = "payment_pending"
	OrderStatusConfirmed         = "confirmed"
	OrderStatusAtMerchant        = "at_merchant"
	OrderStatusReadyForPickup    = "ready_for_pickup"
	OrderStatusWithDeliveryAgent = "with_delivery_agent"
	OrderStatusOutForDelivery    = "out_for_delivery"
	OrderStatusDelivered         = "delivered"
	OrderStatusReturned          = "returned"
	OrderStatusCancelled         = "cancelled"
)

// OrderStatuses lists every valid order status.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPaymentPending,
	OrderStatusConfirmed,
	OrderStatusAtMerchant,
	OrderStatusReadyForPickup,
	OrderStatusWithDeliveryAgent,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusReturned,
	OrderStatusCancelled,
}

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s string) bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Delivery statuses, independent from order statuses.
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusPickedUp  = "picked_up"
	DeliveryStatusInTransit = "in_transit"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
)

// Account roles.
const (
	RoleBuyer         = "buyer"
	RoleSeller        = "seller"
	RoleDeliveryAgent = "delivery_agent"
	RoleAdmin         = "admin"
)

// Payment methods. COD is the only method that drives downstream logic
// (delivery COD amount); any other value is carried through untouched.
const (
	PaymentMethodCOD  = "cod"
	PaymentMethodCard = "card"
)
