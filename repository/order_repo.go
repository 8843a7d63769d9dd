package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dinehub/scheduling-engine/models"
)

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(order *models.ScheduledOrder) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) Get(scope TenantKey, id uint) (*models.ScheduledOrder, error) {
	var order models.ScheduledOrder
	err := r.db.Preload("Alternatives").
		Where("org_id = ? AND restaurant_id = ?", scope.OrgID, scope.RestaurantID).
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Save(order *models.ScheduledOrder) error {
	return r.db.Save(order).Error
}

// ReplaceAlternatives mengganti seluruh daftar alternatif order (proposal
// baru menggantikan proposal lama).
func (r *orderRepository) ReplaceAlternatives(order *models.ScheduledOrder, alts []models.OrderAlternative) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderAlternative{}).Error; err != nil {
			return err
		}
		for i := range alts {
			alts[i].OrderID = order.ID
			if err := tx.Create(&alts[i]).Error; err != nil {
				return err
			}
		}
		order.Alternatives = alts
		return nil
	})
}

func (r *orderRepository) ListByRestaurant(scope TenantKey, statuses []string) ([]models.ScheduledOrder, error) {
	q := r.db.Preload("Alternatives").
		Where("org_id = ? AND restaurant_id = ?", scope.OrgID, scope.RestaurantID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var list []models.ScheduledOrder
	if err := q.Order("requested_at ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListPastDeadline mengembalikan order yang masih menunggu keputusan tapi
// deadline-nya sudah lewat; dipakai sweep monitor lintas restoran.
func (r *orderRepository) ListPastDeadline(now time.Time) ([]models.ScheduledOrder, error) {
	var list []models.ScheduledOrder
	err := r.db.Preload("Alternatives").
		Where("(status = ? AND approval_deadline < ?) OR (status = ? AND customer_deadline < ?)",
			models.OrderStatusPendingApproval, now,
			models.OrderStatusAltProposed, now).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
