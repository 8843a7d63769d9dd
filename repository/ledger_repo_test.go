package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/dinehub/scheduling-engine/models"
)

func newLedgerDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         glogger.Default.LogMode(glogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SlotLedger{}))
	return db
}

// Baris ledger kedua dengan key yang sama harus terbaca sebagai
// gorm.ErrDuplicatedKey; ensureRow bergantung pada terjemahan itu saat
// dua request first-touch slot yang sama berbarengan.
func TestDuplicateLedgerRowTranslated(t *testing.T) {
	db := newLedgerDB(t, "file:ledger_dup?mode=memory&cache=shared")

	row := models.SlotLedger{
		OrgID: 1, RestaurantID: 1,
		SlotDate: "2026-09-01", SlotStartMin: 1080,
		Kind: models.LedgerKindDining, MaxUnits: 10,
	}
	require.NoError(t, db.Create(&row).Error)

	dup := models.SlotLedger{
		OrgID: 1, RestaurantID: 1,
		SlotDate: "2026-09-01", SlotStartMin: 1080,
		Kind: models.LedgerKindDining, MaxUnits: 10,
	}
	err := db.Create(&dup).Error
	require.Error(t, err)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
}

// Guard commit harus memakai max dari settings saat ini, bukan nilai beku
// di kolom. Kapasitas yang dinaikkan langsung bisa dipakai, dan kolom
// max_units ikut ter-refresh.
func TestCommitUnitsFollowsRaisedMax(t *testing.T) {
	db := newLedgerDB(t, "file:ledger_max?mode=memory&cache=shared")
	repo := &ledgerRepository{db: db}

	scope := TenantKey{OrgID: 1, RestaurantID: 1}
	refs := []models.SlotRef{{Date: "2026-09-01", StartMin: 1080}}

	// habiskan slot pada max lama
	require.NoError(t, repo.CommitUnits(scope, models.LedgerKindDining, refs, 4, 4))
	err := repo.CommitUnits(scope, models.LedgerKindDining, refs, 1, 4)
	require.ErrorIs(t, err, models.ErrConcurrencyConflict)

	// operator menaikkan kapasitas: commit berikutnya harus lolos
	require.NoError(t, repo.CommitUnits(scope, models.LedgerKindDining, refs, 4, 10))

	var row models.SlotLedger
	require.NoError(t, db.Where("slot_start_min = ?", 1080).First(&row).Error)
	require.Equal(t, 8, row.UsedUnits)
	require.Equal(t, 10, row.MaxUnits)

	// dan max yang lebih kecil dari pemakaian menolak lagi
	err = repo.CommitUnits(scope, models.LedgerKindDining, refs, 1, 6)
	require.ErrorIs(t, err, models.ErrConcurrencyConflict)
}
