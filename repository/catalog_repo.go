package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/dinehub/scheduling-engine/models"
)

// catalogRepository membaca resource catalog (restoran, settings, meja).
// Read-mostly: mutasi meja dilakukan oleh management surface di luar
// engine ini.
type catalogRepository struct {
	db *gorm.DB
}

func (r *catalogRepository) GetRestaurant(orgID, id uint) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := r.db.Preload("OperatingHour").
		Where("org_id = ?", orgID).
		First(&rest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *catalogRepository) FindRestaurant(id uint) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := r.db.Preload("OperatingHour").
		First(&rest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

func (r *catalogRepository) ListActiveTables(scope TenantKey) ([]models.Table, error) {
	var tables []models.Table
	err := r.db.
		Where("org_id = ? AND restaurant_id = ? AND active = ?",
			scope.OrgID, scope.RestaurantID, true).
		Order("capacity ASC").
		Find(&tables).Error
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *catalogRepository) GetTable(scope TenantKey, id uint) (*models.Table, error) {
	var table models.Table
	err := r.db.
		Where("org_id = ? AND restaurant_id = ?", scope.OrgID, scope.RestaurantID).
		First(&table, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}
