package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// setupSchedulingDB menggunakan SQLite in-memory bernama unik per test.
func setupSchedulingDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
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
	return db
}

// seedVenue membuat restoran dengan jam buka setiap hari 10:00-22:00.
func seedVenue(t *testing.T, db *gorm.DB) *models.Restaurant {
	t.Helper()
	rest := &models.Restaurant{
		OrgID:    1,
		Name:     "Dapur Uji",
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
	return rest
}

// bookingTime: 18:00 UTC seminggu dari sekarang, selalu di dalam jendela
// booking dan jam buka.
func bookingTime() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), 18, 0, 0, 0, time.UTC)
}

// fillDiningSlot menghabiskan kapasitas dining slot 18:00 pada hari booking.
func fillDiningSlot(t *testing.T, db *gorm.DB, rest *models.Restaurant, units int) {
	t.Helper()
	store := repository.NewStore(db)
	scope := repository.TenantKey{OrgID: rest.OrgID, RestaurantID: rest.ID}
	refs := []models.SlotRef{{Date: bookingTime().Format("2006-01-02"), StartMin: 1080}}
	require.NoError(t, store.Ledger.CommitUnits(scope, models.LedgerKindDining, refs, units,
		rest.Settings.DiningUnitsPerSlot))
}

func performJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}
