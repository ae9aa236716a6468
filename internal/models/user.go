package models

import (
	"github.com/google/uuid"
)

// User represents an authenticated account: buyer, seller, delivery agent
// or admin. Role is the account's declared role; for a specific order the
// effective role may differ (store ownership implies seller).
type User struct {
	BaseModel
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Phone        string  `gorm:"uniqueIndex" json:"phone"`
	PasswordHash string  `json:"-"`
	Role         string  `gorm:"index" json:"role"`
	IsActive     bool    `json:"is_active"`
	Stores       []Store `gorm:"foreignKey:OwnerID" json:"stores,omitempty"`
	Orders       []Order `json:"orders,omitempty"`
}

// Store is a seller-owned shop. City is the parcel origin used for
// delivery fee lookup.
type Store struct {
	BaseModel
	OwnerID uuid.UUID `gorm:"type:uuid;index" json:"owner_id"`
	Owner   *User     `json:"owner,omitempty"`
	Name    string    `json:"name"`
	City    string    `json:"city"`
	Wilaya  string    `json:"wilaya"`
	Active  bool      `json:"active"`
}
