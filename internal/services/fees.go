package services

import (
	"log"

	"gorm.io/gorm"

	"github.com/example/achat/internal/models"
)

// FeeService resolves delivery fees for a shipment route. Rules are keyed by
// (origin city, destination wilaya); routes without a rule get the
// configured default fee.
type FeeService struct {
	db         *gorm.DB
	defaultFee float64
}

// NewFeeService constructs a FeeService.
func NewFeeService(db *gorm.DB, defaultFee float64) *FeeService {
	return &FeeService{db: db, defaultFee: defaultFee}
}

// FeeForRoute returns the configured fee for the route, or the default when
// no rule matches. A failed lookup also falls back to the default: fee
// resolution must never block delivery provisioning.
func (s *FeeService) FeeForRoute(originCity, wilaya string) float64 {
	var rule models.DeliveryFeeRule
	err := s.db.Where("origin_city = ? AND wilaya = ?", originCity, wilaya).First(&rule).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("[Fees] lookup failed for route %s -> %s: %v, using default fee", originCity, wilaya, err)
		}
		return s.defaultFee
	}
	return rule.Amount
}
