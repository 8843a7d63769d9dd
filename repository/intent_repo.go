package repository

import (
	"gorm.io/gorm"

	"github.com/dinehub/scheduling-engine/models"
)

type intentRepository struct {
	db *gorm.DB
}

func (r *intentRepository) Create(intent *models.NotificationIntent) error {
	return r.db.Create(intent).Error
}

func (r *intentRepository) ListPending(scope TenantKey) ([]models.NotificationIntent, error) {
	var list []models.NotificationIntent
	err := r.db.
		Where("org_id = ? AND restaurant_id = ? AND dispatched = ?",
			scope.OrgID, scope.RestaurantID, false).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *intentRepository) MarkDispatched(scope TenantKey, id uint) error {
	return r.db.Model(&models.NotificationIntent{}).
		Where("org_id = ? AND restaurant_id = ? AND id = ?",
			scope.OrgID, scope.RestaurantID, id).
		Update("dispatched", true).Error
}
