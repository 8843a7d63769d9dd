package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// testNow adalah jam referensi semua service test: pagi hari yang sama
// dengan slot yang dibooking.
var testNow = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

// at membangun waktu di hari test pada jam:menit tertentu (UTC).
func at(hour, minute int) time.Time {
	return time.Date(2026, 9, 1, hour, minute, 0, 0, time.UTC)
}

type testEngine struct {
	store        *repository.Store
	rest         *models.Restaurant
	scope        repository.TenantKey
	availability *AvailabilityService
	detector     *ConflictDetector
	waitlist     *WaitlistService
	reservations *ReservationService
	orders       *OrderService
}

// newTestEngine merakit seluruh service graph di atas SQLite. dsn unik per
// test supaya state tidak bocor antar test.
func newTestEngine(t *testing.T, dsn string) *testEngine {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         glogger.Default.LogMode(glogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Restaurant{},
		&models.OperatingHours{},
		&models.Table{},
		&models.SlotLedger{},
		&models.Reservation{},
		&models.ScheduledOrder{},
		&models.OrderAlternative{},
		&models.WaitlistEntry{},
		&models.NotificationIntent{},
	))

	rest := &models.Restaurant{
		OrgID:    1,
		Name:     "Warung Slot",
		Timezone: "UTC",
		Active:   true,
		Settings: models.ScheduleSettings{
			SlotGranularityMin:   30,
			DefaultDiningMin:     60,
			MaxPartySize:         8,
			DiningUnitsPerSlot:   10,
			KitchenUnitsPerSlot:  2,
			DeliveryUnitsPerSlot: 1,
			LimitedThresholdPct:  20,
			MaxAdvanceDays:       30,
			AutoConfirm:          true,
			ApprovalWindowMin:    15,
			CustomerWindowMin:    30,
			WaitlistWindowMin:    10,
			WaitlistMaxCycles:    2,
			AltCompensationPct:   10,
		},
	}
	for wd := 0; wd < 7; wd++ {
		rest.OperatingHour = append(rest.OperatingHour, models.OperatingHours{
			Weekday: wd, OpenTime: "10:00", CloseTime: "22:00",
		})
	}
	require.NoError(t, db.Create(rest).Error)

	store := repository.NewStore(db)
	availability := NewAvailabilityService(store)
	detector := NewConflictDetector(availability)
	waitlist := NewWaitlistService(store, availability, detector)

	return &testEngine{
		store:        store,
		rest:         rest,
		scope:        repository.TenantKey{OrgID: rest.OrgID, RestaurantID: rest.ID},
		availability: availability,
		detector:     detector,
		waitlist:     waitlist,
		reservations: NewReservationService(store, availability, detector, waitlist),
		orders:       NewOrderService(store, availability, detector),
	}
}

// fillSlot menghabiskan units kapasitas slot tertentu langsung lewat
// ledger, untuk memaksa kondisi penuh.
func (e *testEngine) fillSlot(t *testing.T, kind string, startMin, units int) {
	t.Helper()
	refs := []models.SlotRef{{Date: "2026-09-01", StartMin: startMin}}
	max := e.rest.Settings.DiningUnitsPerSlot
	switch kind {
	case models.LedgerKindKitchen:
		max = e.rest.Settings.KitchenUnitsPerSlot
	case models.LedgerKindDelivery:
		max = e.rest.Settings.DeliveryUnitsPerSlot
	}
	require.NoError(t, e.store.Ledger.CommitUnits(e.scope, kind, refs, units, max))
}

func (e *testEngine) usedAt(t *testing.T, kind string, startMin int) int {
	t.Helper()
	used, err := e.store.Ledger.UsedByDate(e.scope, kind, "2026-09-01")
	require.NoError(t, err)
	return used[startMin]
}
