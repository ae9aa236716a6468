package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/achat/internal/models"
)

// ResolveEffectiveRole determines the role a caller acts under for a
// specific order. Owning the store behind any line item makes the caller a
// seller for that order; being the placing user makes them a buyer;
// otherwise the token-declared role applies (admin, delivery agent).
func ResolveEffectiveRole(db *gorm.DB, order *models.Order, actorID uuid.UUID, declaredRole string) (string, error) {
	storeIDs := []uuid.UUID{order.StoreID}
	for _, item := range order.Items {
		if item.StoreID != uuid.Nil {
			storeIDs = append(storeIDs, item.StoreID)
		}
	}

	var owned int64
	if err := db.Model(&models.Store{}).
		Where("owner_id = ? AND id IN ?", actorID, storeIDs).
		Count(&owned).Error; err != nil {
		return "", err
	}
	if owned > 0 {
		return models.RoleSeller, nil
	}

	if order.UserID == actorID {
		return models.RoleBuyer, nil
	}

	return declaredRole, nil
}
