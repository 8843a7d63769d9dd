package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dinehub/scheduling-engine/models"
)

type waitlistRepository struct {
	db *gorm.DB
}

func (r *waitlistRepository) Create(entry *models.WaitlistEntry) error {
	return r.db.Create(entry).Error
}

func (r *waitlistRepository) Get(scope TenantKey, id uint) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := r.db.
		Where("org_id = ? AND restaurant_id = ?", scope.OrgID, scope.RestaurantID).
		First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) Save(entry *models.WaitlistEntry) error {
	return r.db.Save(entry).Error
}

// FirstActiveOverlapping memilih kandidat promosi: strict FIFO by
// created_at, tanpa tier prioritas. maxParty > 0 membatasi party size
// dengan kapasitas yang baru lepas.
func (r *waitlistRepository) FirstActiveOverlapping(scope TenantKey, from, to time.Time, maxParty int) (*models.WaitlistEntry, error) {
	q := r.db.
		Where("org_id = ? AND restaurant_id = ? AND status = ?",
			scope.OrgID, scope.RestaurantID, models.WaitlistStatusActive).
		Where("window_start < ? AND window_end > ?", to, from)
	if maxParty > 0 {
		q = q.Where("party_size <= ?", maxParty)
	}
	var entry models.WaitlistEntry
	err := q.Order("created_at ASC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *waitlistRepository) ListNotifiedPastDeadline(now time.Time) ([]models.WaitlistEntry, error) {
	var list []models.WaitlistEntry
	err := r.db.
		Where("status = ? AND notify_deadline < ?", models.WaitlistStatusNotified, now).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListStale: entry active yang window preferensinya sudah sepenuhnya lewat.
func (r *waitlistRepository) ListStale(now time.Time) ([]models.WaitlistEntry, error) {
	var list []models.WaitlistEntry
	err := r.db.
		Where("status IN ? AND window_end < ?",
			[]string{models.WaitlistStatusActive, models.WaitlistStatusNotified}, now).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *waitlistRepository) ListByRestaurant(scope TenantKey) ([]models.WaitlistEntry, error) {
	var list []models.WaitlistEntry
	err := r.db.
		Where("org_id = ? AND restaurant_id = ?", scope.OrgID, scope.RestaurantID).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
