package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/router"
	"github.com/dinehub/scheduling-engine/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndScheduling menguji flow utama engine:
// 0. Seed restoran + jam buka
// 1. Cek availability
// 2. Create reservation => confirmed + manage token
// 3. Kapasitas penuh => reservation kedua masuk waitlist (409)
// 4. Cancel reservation pertama via manage token
// 5. Waitlist entry terpromosi => notified (dilihat staff)
// 6. Scheduled order: intake => approve => confirmed
// 7. Notification intents terkumpul dan bisa ditandai dispatched
func TestEndToEndScheduling(t *testing.T) {
	db := setupIntegrationDB()
	rest := seedIntegrationVenue(db)
	r := router.SetupRouter(db)

	checkAvailabilityTest(t, r, rest)

	code, manageToken := createReservationTest(t, r, rest)

	fillRemainingCapacity(t, db, rest)

	waitlistID := conflictJoinsWaitlistTest(t, r, rest)

	cancelReservationTest(t, r, rest, code, manageToken)

	staffWaitlistNotifiedTest(t, r, rest, waitlistID)

	orderID := intakeOrderTest(t, r, rest)
	approveOrderTest(t, r, rest, orderID)

	dispatchIntentsTest(t, r, rest)
}

func setupIntegrationDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{
		Logger:         glogger.Default.LogMode(glogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	autoMigrate(db)
	return db
}

func seedIntegrationVenue(db *gorm.DB) *models.Restaurant {
	rest := &models.Restaurant{
		OrgID:    1,
		Name:     "Kedai Integrasi",
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
	if err := db.Create(rest).Error; err != nil {
		log.Fatalf("failed to seed restaurant: %v", err)
	}
	return rest
}

// integrationBookingTime 18:00 UTC seminggu dari sekarang.
func integrationBookingTime() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), 18, 0, 0, 0, time.UTC)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func checkAvailabilityTest(t *testing.T, r *gin.Engine, rest *models.Restaurant) {
	date := integrationBookingTime().Format("2006-01-02")
	w := doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/restaurants/%d/availability?date=%s&party_size=4", rest.ID, date), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("availability: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func createReservationTest(t *testing.T, r *gin.Engine, rest *models.Restaurant) (string, string) {
	w := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/restaurants/%d/reservations", rest.ID), "", map[string]interface{}{
			"customer_name":  "Budi",
			"customer_phone": "0812000111",
			"party_size":     4,
			"starts_at":      integrationBookingTime().Format(time.RFC3339),
		})
	if w.Code != http.StatusCreated {
		t.Fatalf("create reservation: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			ManageToken string `json:"manage_token"`
			Reservation struct {
				ConfirmationCode string `json:"confirmation_code"`
				Status           string `json:"status"`
			} `json:"reservation"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Reservation.Status != models.ReservationStatusConfirmed {
		t.Fatalf("create reservation: expected confirmed, got %s", resp.Data.Reservation.Status)
	}
	if resp.Data.ManageToken == "" || resp.Data.Reservation.ConfirmationCode == "" {
		t.Fatalf("create reservation: missing manage token or code, body=%s", w.Body.String())
	}
	return resp.Data.Reservation.ConfirmationCode, resp.Data.ManageToken
}

// fillRemainingCapacity menghabiskan sisa unit dining di kedua slot window
// 18:00-19:00 langsung lewat ledger.
func fillRemainingCapacity(t *testing.T, db *gorm.DB, rest *models.Restaurant) {
	store := repository.NewStore(db)
	scope := repository.TenantKey{OrgID: rest.OrgID, RestaurantID: rest.ID}
	refs := []models.SlotRef{
		{Date: integrationBookingTime().Format("2006-01-02"), StartMin: 1080},
		{Date: integrationBookingTime().Format("2006-01-02"), StartMin: 1110},
	}
	if err := store.Ledger.CommitUnits(scope, models.LedgerKindDining, refs, 6,
		rest.Settings.DiningUnitsPerSlot); err != nil {
		t.Fatalf("fill capacity: %v", err)
	}
}

func conflictJoinsWaitlistTest(t *testing.T, r *gin.Engine, rest *models.Restaurant) uint {
	w := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/restaurants/%d/reservations", rest.ID), "", map[string]interface{}{
			"customer_name":  "Sari",
			"customer_phone": "0812000222",
			"party_size":     3,
			"starts_at":      integrationBookingTime().Format(time.RFC3339),
			"join_waitlist":  true,
		})
	if w.Code != http.StatusConflict {
		t.Fatalf("conflict booking: expected 409, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			WaitlistID   uint   `json:"waitlist_id"`
			WaitlistCode string `json:"waitlist_code"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.WaitlistID == 0 || resp.Data.WaitlistCode == "" {
		t.Fatalf("conflict booking: missing waitlist entry, body=%s", w.Body.String())
	}
	return resp.Data.WaitlistID
}

func cancelReservationTest(t *testing.T, r *gin.Engine, rest *models.Restaurant, code, manageToken string) {
	w := doJSON(t, r, http.MethodDelete,
		fmt.Sprintf("/restaurants/%d/reservations/%s", rest.ID, code), manageToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel reservation: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func staffWaitlistNotifiedTest(t *testing.T, r *gin.Engine, rest *models.Restaurant, waitlistID uint) {
	hostToken, err := utils.GenerateTenantToken(rest.OrgID, rest.ID, 7, "host")
	if err != nil {
		t.Fatalf("host token: %v", err)
	}
	w := doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/staff/restaurants/%d/waitlist", rest.ID), hostToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("staff waitlist: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	for _, entry := range resp.Data {
		if entry.ID == waitlistID {
			if entry.Status != models.WaitlistStatusNotified {
				t.Fatalf("staff waitlist: expected notified, got %s", entry.Status)
			}
			return
		}
	}
	t.Fatalf("staff waitlist: entry %d not found, body=%s", waitlistID, w.Body.String())
}

func intakeOrderTest(t *testing.T, r *gin.Engine, rest *models.Restaurant) uint {
	w := doJSON(t, r, http.MethodPost,
		fmt.Sprintf("/restaurants/%d/orders", rest.ID), "", map[string]interface{}{
			"customer_name":      "Andi",
			"fulfillment":        "pickup",
			"requested_at":       integrationBookingTime().Add(2 * time.Hour).Format(time.RFC3339),
			"estimated_prep_min": 30,
			"order_total":        95000.0,
		})
	if w.Code != http.StatusCreated {
		t.Fatalf("intake order: expected 201, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Order struct {
				ID     uint   `json:"id"`
				Status string `json:"status"`
			} `json:"order"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Order.Status != models.OrderStatusPendingApproval {
		t.Fatalf("intake order: expected pending approval, got %s", resp.Data.Order.Status)
	}
	return resp.Data.Order.ID
}

func approveOrderTest(t *testing.T, r *gin.Engine, rest *models.Restaurant, orderID uint) {
	managerToken, err := utils.GenerateTenantToken(rest.OrgID, rest.ID, 3, "manager")
	if err != nil {
		t.Fatalf("manager token: %v", err)
	}
	w := doJSON(t, r, http.MethodPatch,
		fmt.Sprintf("/staff/restaurants/%d/orders/%d/approve", rest.ID, orderID), managerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve order: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Status != models.OrderStatusConfirmed {
		t.Fatalf("approve order: expected confirmed, got %s", resp.Data.Status)
	}
}

func dispatchIntentsTest(t *testing.T, r *gin.Engine, rest *models.Restaurant) {
	managerToken, err := utils.GenerateTenantToken(rest.OrgID, rest.ID, 3, "manager")
	if err != nil {
		t.Fatalf("manager token: %v", err)
	}
	w := doJSON(t, r, http.MethodGet,
		fmt.Sprintf("/staff/restaurants/%d/intents", rest.ID), managerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list intents: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data []struct {
			ID   uint   `json:"id"`
			Kind string `json:"kind"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Data) == 0 {
		t.Fatalf("list intents: expected pending intents, body=%s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodPatch,
		fmt.Sprintf("/staff/restaurants/%d/intents/%d/dispatch", rest.ID, resp.Data[0].ID),
		managerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dispatch intent: expected 200, got %d, body=%s", w.Code, w.Body.String())
	}
}
