package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dinehub/scheduling-engine/models"
)

type reservationRepository struct {
	db *gorm.DB
}

func (r *reservationRepository) Create(res *models.Reservation) error {
	return r.db.Create(res).Error
}

func (r *reservationRepository) Get(scope TenantKey, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.Preload("Table").
		Where("org_id = ? AND restaurant_id = ?", scope.OrgID, scope.RestaurantID).
		First(&res, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) GetByCode(scope TenantKey, code string) (*models.Reservation, error) {
	var res models.Reservation
	err := r.db.Preload("Table").
		Where("org_id = ? AND restaurant_id = ? AND confirmation_code = ?",
			scope.OrgID, scope.RestaurantID, code).
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) Save(res *models.Reservation) error {
	return r.db.Save(res).Error
}

func (r *reservationRepository) ListOverlapping(scope TenantKey, from, to time.Time) ([]models.Reservation, error) {
	var list []models.Reservation
	err := r.db.
		Where("org_id = ? AND restaurant_id = ?", scope.OrgID, scope.RestaurantID).
		Where("status IN ?", []string{
			models.ReservationStatusPending,
			models.ReservationStatusConfirmed,
			models.ReservationStatusSeated,
		}).
		Where("starts_at < ?", to).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	// filter akhir window di memori: ends_at adalah kolom turunan
	out := list[:0]
	for _, res := range list {
		if res.Overlaps(from, to) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *reservationRepository) ListByRestaurant(scope TenantKey, statuses []string) ([]models.Reservation, error) {
	q := r.db.Preload("Table").
		Where("org_id = ? AND restaurant_id = ?", scope.OrgID, scope.RestaurantID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var list []models.Reservation
	if err := q.Order("starts_at ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
