package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	OrderNumber     string    `gorm:"uniqueIndex" json:"order_number"`
	UserID          uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User            *User     `json:"user,omitempty"`
	StoreID         uuid.UUID `gorm:"type:uuid;index" json:"store_id"`
	Store           *Store    `json:"store,omitempty"`
	Status          string    `gorm:"index" json:"status"`
	PlacedAt        time.Time `json:"placed_at"`
	Subtotal        float64   `json:"subtotal"`
	Total           float64   `json:"total"`
	PaymentMethod   string    `json:"payment_method"`
	ShippingAddress string    `json:"shipping_address"`
	ShippingCity    string    `json:"shipping_city"`
	ShippingWilaya  string    `json:"shipping_wilaya"`

	// Platform commission is written once, when the order is delivered and
	// a non-zero rate is configured. Null until then.
	PlatformCommission     *float64 `json:"platform_commission"`
	PlatformCommissionRate *float64 `json:"platform_commission_rate"`

	MerchantNotes string     `json:"merchant_notes"`
	DeliveryNotes string     `json:"delivery_notes"`
	LastUpdatedBy *uuid.UUID `gorm:"type:uuid" json:"last_updated_by"`

	Items         []OrderItem          `json:"items,omitempty"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty"`
	Delivery      *Delivery            `json:"delivery,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	StoreID     uuid.UUID  `gorm:"type:uuid;index" json:"store_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	LineTotal   float64    `json:"line_total"`
}

// OrderStatusHistory is the append-only transition log for an order. Rows
// are never updated or deleted; Seq is assigned inside the same transaction
// as the status change, so per-order ordering does not depend on clock
// resolution.
type OrderStatusHistory struct {
	BaseModel
	OrderID       uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Seq           int       `json:"seq"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	ChangedBy     uuid.UUID `gorm:"type:uuid" json:"changed_by"`
	ChangedByRole string    `json:"changed_by_role"`
	Note          string    `json:"note"`
}
