package services

import (
	"gorm.io/gorm"

	"github.com/example/achat/internal/models"
)

// AgentPolicy selects the delivery agent for a newly provisioned delivery.
// Returning (nil, nil) means no agent is available and provisioning should
// be skipped.
type AgentPolicy interface {
	AgentForOrder(order *models.Order) (*models.User, error)
}

// DefaultAgentPolicy assigns the longest-standing active delivery agent
// account. It is the fallback policy; region- or load-based assignment can
// replace it without touching the provisioner.
type DefaultAgentPolicy struct {
	db *gorm.DB
}

// NewDefaultAgentPolicy constructs a DefaultAgentPolicy.
func NewDefaultAgentPolicy(db *gorm.DB) *DefaultAgentPolicy {
	return &DefaultAgentPolicy{db: db}
}

// AgentForOrder returns the oldest active delivery-agent account.
func (p *DefaultAgentPolicy) AgentForOrder(_ *models.Order) (*models.User, error) {
	var agent models.User
	err := p.db.Where("role = ? AND is_active = ?", models.RoleDeliveryAgent, true).
		Order("created_at asc").
		First(&agent).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}
