package services

import (
	"github.com/example/achat/internal/models"
)

// allowedTransitions defines the order state machine. The key is the current
// status, the value the set of statuses reachable from it. Statuses with an
// empty set are terminal.
var allowedTransitions = map[string][]string{
	models.OrderStatusPending: {
		models.OrderStatusPaymentPending,
		models.OrderStatusConfirmed,
		models.OrderStatusCancelled,
	},
	models.OrderStatusPaymentPending: {
		models.OrderStatusConfirmed,
		models.OrderStatusCancelled,
	},
	models.OrderStatusConfirmed: {
		models.OrderStatusAtMerchant,
		models.OrderStatusCancelled,
	},
	models.OrderStatusAtMerchant: {
		models.OrderStatusReadyForPickup,
		models.OrderStatusCancelled,
	},
	models.OrderStatusReadyForPickup: {
		models.OrderStatusWithDeliveryAgent,
		models.OrderStatusCancelled,
	},
	models.OrderStatusWithDeliveryAgent: {
		models.OrderStatusOutForDelivery,
		models.OrderStatusReadyForPickup,
	},
	models.OrderStatusOutForDelivery: {
		models.OrderStatusDelivered,
		models.OrderStatusReturned,
	},
	models.OrderStatusDelivered: {},
	models.OrderStatusReturned:  {},
	models.OrderStatusCancelled: {},
}

// roleTargets defines which target statuses each role may request. This is
// checked independently of reachability: a role can be permitted a status
// that is not reachable from the current one, and vice versa.
var roleTargets = map[string][]string{
	models.RoleBuyer: {
		models.OrderStatusConfirmed,
		models.OrderStatusCancelled,
	},
	models.RoleSeller: {
		models.OrderStatusConfirmed,
		models.OrderStatusAtMerchant,
		models.OrderStatusReadyForPickup,
		models.OrderStatusCancelled,
	},
	models.RoleDeliveryAgent: {
		models.OrderStatusWithDeliveryAgent,
		models.OrderStatusOutForDelivery,
		models.OrderStatusDelivered,
		models.OrderStatusReturned,
	},
	models.RoleAdmin: models.OrderStatuses,
}

// CanTransition reports whether the state machine allows moving from one
// status to another.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RoleMayTarget reports whether the given role is permitted to request the
// target status.
func RoleMayTarget(role, target string) bool {
	for _, s := range roleTargets[role] {
		if s == target {
			return true
		}
	}
	return false
}

// PermittedTransitions returns the statuses a role can actually move an
// order to from the given status: the intersection of the state machine row
// and the role's permitted targets.
func PermittedTransitions(from, role string) []string {
	var out []string
	for _, s := range allowedTransitions[from] {
		if RoleMayTarget(role, s) {
			out = append(out, s)
		}
	}
	return out
}

// IsTerminalStatus reports whether the status has no outgoing transitions.
func IsTerminalStatus(status string) bool {
	return len(allowedTransitions[status]) == 0
}
