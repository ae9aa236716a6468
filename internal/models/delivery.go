package models

import (
	"time"

	"github.com/google/uuid"
)

// Delivery is the shipment record auto-provisioned when an order becomes
// ready for pickup. The unique index on OrderID enforces the one-delivery-
// per-order invariant at the storage layer; concurrent provisioning attempts
// lose the race on insert rather than creating duplicates.
type Delivery struct {
	BaseModel
	OrderID        uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Order          *Order    `json:"order,omitempty"`
	AgentID        uuid.UUID `gorm:"type:uuid;index" json:"agent_id"`
	Agent          *User     `json:"agent,omitempty"`
	Status         string    `gorm:"index" json:"status"`
	TrackingNumber string    `gorm:"uniqueIndex" json:"tracking_number"`

	CODAmount      float64    `json:"cod_amount"`
	CODCollected   bool       `json:"cod_collected"`
	CODCollectedAt *time.Time `json:"cod_collected_at"`
	DeliveryFee    float64    `json:"delivery_fee"`

	DestinationWilaya string    `json:"destination_wilaya"`
	AssignedAt        time.Time `json:"assigned_at"`
}
