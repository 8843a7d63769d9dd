package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dinehub/scheduling-engine/models"
)

type ledgerRepository struct {
	db *gorm.DB
}

// ensureRow membuat baris ledger untuk slot jika belum ada. Unique index
// (restaurant, date, slot, kind) membuat pembuatan ganda tidak mungkin;
// duplicate error dari pembalap lain diabaikan.
func (r *ledgerRepository) ensureRow(tx *gorm.DB, scope TenantKey, kind string, ref models.SlotRef, maxUnits int) error {
	row := models.SlotLedger{
		OrgID:        scope.OrgID,
		RestaurantID: scope.RestaurantID,
		SlotDate:     ref.Date,
		SlotStartMin: ref.StartMin,
		Kind:         kind,
		MaxUnits:     maxUnits,
		UpdatedAt:    time.Now(),
	}
	err := tx.Where(models.SlotLedger{
		RestaurantID: scope.RestaurantID,
		SlotDate:     ref.Date,
		SlotStartMin: ref.StartMin,
		Kind:         kind,
	}).FirstOrCreate(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return nil
}

// CommitUnits adalah primitive conditional-commit: "cek sisa kapasitas,
// lalu commit" sebagai satu UPDATE bersyarat per slot, semua slot dalam
// satu transaksi. Guard memakai maxUnits dari settings saat ini, bukan
// kolom max_units yang ter-freeze saat baris dibuat; kolomnya disegarkan
// dalam statement yang sama supaya perubahan kapasitas restoran langsung
// berlaku. Nol baris ter-update berarti kalah race (atau memang penuh)
// dan seluruh transaksi dibatalkan.
func (r *ledgerRepository) CommitUnits(scope TenantKey, kind string, refs []models.SlotRef, units, maxUnits int) error {
	if units <= 0 {
		return fmt.Errorf("commit units must be positive, got %d", units)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, ref := range refs {
			if err := r.ensureRow(tx, scope, kind, ref, maxUnits); err != nil {
				return err
			}
			res := tx.Exec(
				`UPDATE slot_ledgers
				 SET used_units = used_units + ?, max_units = ?, updated_at = ?
				 WHERE org_id = ? AND restaurant_id = ? AND slot_date = ? AND slot_start_min = ? AND kind = ?
				   AND used_units + ? <= ?`,
				units, maxUnits, time.Now(),
				scope.OrgID, scope.RestaurantID, ref.Date, ref.StartMin, kind,
				units, maxUnits,
			)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.ErrConcurrencyConflict
			}
		}
		return nil
	})
}

// ReleaseUnits melepas kapasitas. Decrement murni, komutatif, tidak perlu
// guard; floor di 0 supaya release ganda tidak membuat counter negatif.
func (r *ledgerRepository) ReleaseUnits(scope TenantKey, kind string, refs []models.SlotRef, units int) error {
	if units <= 0 {
		return fmt.Errorf("release units must be positive, got %d", units)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, ref := range refs {
			res := tx.Exec(
				`UPDATE slot_ledgers
				 SET used_units = CASE WHEN used_units >= ? THEN used_units - ? ELSE 0 END, updated_at = ?
				 WHERE org_id = ? AND restaurant_id = ? AND slot_date = ? AND slot_start_min = ? AND kind = ?`,
				units, units, time.Now(),
				scope.OrgID, scope.RestaurantID, ref.Date, ref.StartMin, kind,
			)
			if res.Error != nil {
				return res.Error
			}
		}
		return nil
	})
}

// UsedByDate membaca okupansi satu hari sekaligus: map slot_start_min ->
// used_units. Dibaca fresh setiap panggilan, tanpa cache (staleness =
// over-booking).
func (r *ledgerRepository) UsedByDate(scope TenantKey, kind, date string) (map[int]int, error) {
	var rows []models.SlotLedger
	err := r.db.
		Where("org_id = ? AND restaurant_id = ? AND kind = ? AND slot_date = ?",
			scope.OrgID, scope.RestaurantID, kind, date).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	used := make(map[int]int, len(rows))
	for _, row := range rows {
		used[row.SlotStartMin] = row.UsedUnits
	}
	return used, nil
}
