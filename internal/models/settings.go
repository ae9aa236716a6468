package models

import (
	"github.com/google/uuid"
)

// PlatformSettings holds platform-wide configuration. Updates append a new
// row; readers take the most recently updated record, so the commission
// calculator always sees a consistent snapshot of the rate.
type PlatformSettings struct {
	BaseModel
	CommissionRate float64    `json:"commission_rate"`
	UpdatedBy      *uuid.UUID `gorm:"type:uuid" json:"updated_by"`
}

// DeliveryFeeRule prices shipments from an origin city to a destination
// wilaya. Orders with no matching rule fall back to the configured default
// fee.
type DeliveryFeeRule struct {
	BaseModel
	OriginCity string  `gorm:"index:idx_fee_rule_route,unique" json:"origin_city"`
	Wilaya     string  `gorm:"index:idx_fee_rule_route,unique" json:"wilaya"`
	Amount     float64 `json:"amount"`
}
