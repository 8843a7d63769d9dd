package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/services"
	"github.com/dinehub/scheduling-engine/utils"
)

type ReservationController struct {
	store        *repository.Store
	reservations *services.ReservationService
	waitlist     *services.WaitlistService
}

func NewReservationController(store *repository.Store, reservations *services.ReservationService, waitlist *services.WaitlistService) *ReservationController {
	return &ReservationController{store: store, reservations: reservations, waitlist: waitlist}
}

// CreateReservation -> booking customer tanpa login. Konflik kapasitas
// mengembalikan alternatif; customer bisa sekalian opt-in waitlist.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	rest, scope, ok := publicRestaurant(c, rc.store)
	if !ok {
		return
	}

	var req struct {
		CustomerName    string    `json:"customer_name" binding:"required"`
		CustomerPhone   string    `json:"customer_phone"`
		CustomerEmail   string    `json:"customer_email"`
		PartySize       int       `json:"party_size" binding:"required"`
		StartsAt        time.Time `json:"starts_at" binding:"required"`
		DurationMin     int       `json:"duration_min"`
		SpecialRequests string    `json:"special_requests"`
		JoinWaitlist    bool      `json:"join_waitlist"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	res, err := rc.reservations.Create(scope, rest, services.CreateReservationInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		PartySize:       req.PartySize,
		StartsAt:        req.StartsAt,
		DurationMin:     req.DurationMin,
		SpecialRequests: req.SpecialRequests,
	}, now)

	var conflict *models.CapacityConflict
	if errors.As(err, &conflict) && req.JoinWaitlist {
		duration := req.DurationMin
		if duration <= 0 {
			duration = rest.Settings.DefaultDiningMin
		}
		entry, code, wErr := rc.waitlist.Add(scope, rest, services.JoinWaitlistInput{
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			CustomerEmail: req.CustomerEmail,
			PartySize:     req.PartySize,
			WindowStart:   req.StartsAt,
			WindowEnd:     req.StartsAt.Add(time.Duration(duration) * time.Minute),
		}, now)
		if wErr != nil {
			respondServiceError(c, wErr)
			return
		}
		utils.RespondJSON(c, http.StatusConflict, "no capacity; added to waitlist", gin.H{
			"reasons":       conflict.Reasons,
			"alternatives":  conflict.Alternatives,
			"waitlist_id":   entry.ID,
			"waitlist_code": code,
		})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	manageToken, err := utils.GenerateManageToken(scope.OrgID, scope.RestaurantID, res.ConfirmationCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", gin.H{
		"reservation":  res,
		"manage_token": manageToken,
	})
}

// manageAuth memverifikasi manage token customer terhadap reservasi di
// path. Token memberi hak baca/batal untuk satu reservasi saja.
func manageAuth(c *gin.Context, scope repository.TenantKey, code string) bool {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("manage token required"))
		return false
	}
	claims, err := utils.ParseManageToken(token)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return false
	}
	if claims.ConfirmationCode != code || claims.RestaurantID != scope.RestaurantID || claims.OrgID != scope.OrgID {
		utils.RespondError(c, http.StatusForbidden, errors.New("manage token does not cover this reservation"))
		return false
	}
	return true
}

// GetReservation -> detail reservasi milik customer via manage token
func (rc *ReservationController) GetReservation(c *gin.Context) {
	_, scope, ok := publicRestaurant(c, rc.store)
	if !ok {
		return
	}
	code := c.Param("code")
	if !manageAuth(c, scope, code) {
		return
	}
	res, err := rc.reservations.GetByCode(scope, code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", res)
}

// CancelReservation -> pembatalan oleh customer via manage token.
// Idempoten: cancel ulang mengembalikan state yang sama.
func (rc *ReservationController) CancelReservation(c *gin.Context) {
	rest, scope, ok := publicRestaurant(c, rc.store)
	if !ok {
		return
	}
	code := c.Param("code")
	if !manageAuth(c, scope, code) {
		return
	}
	res, err := rc.reservations.GetByCode(scope, code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	res, err = rc.reservations.Cancel(scope, rest, res.ID, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", res)
}

// ---------- staff surface ----------

func (rc *ReservationController) ListReservations(c *gin.Context) {
	_, scope, ok := staffRestaurant(c, rc.store)
	if !ok {
		return
	}
	var statuses []string
	if s := c.Query("status"); s != "" {
		statuses = strings.Split(s, ",")
	}
	list, err := rc.reservations.List(scope, statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", list)
}

func (rc *ReservationController) ConfirmReservation(c *gin.Context) {
	_, scope, ok := staffRestaurant(c, rc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "reservation_id")
	if !ok {
		return
	}
	res, err := rc.reservations.Confirm(scope, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation confirmed", res)
}

func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	rest, scope, ok := staffRestaurant(c, rc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "reservation_id")
	if !ok {
		return
	}
	var req struct {
		PartySize   int       `json:"party_size"`
		StartsAt    time.Time `json:"starts_at"`
		DurationMin int       `json:"duration_min"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	res, err := rc.reservations.Update(scope, rest, id, services.UpdateReservationInput{
		PartySize:   req.PartySize,
		StartsAt:    req.StartsAt,
		DurationMin: req.DurationMin,
	}, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", res)
}

func (rc *ReservationController) CheckIn(c *gin.Context) {
	rest, scope, ok := staffRestaurant(c, rc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "reservation_id")
	if !ok {
		return
	}
	// body opsional: host boleh memilih meja sendiri
	var req struct {
		TableID *uint `json:"table_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}
	res, err := rc.reservations.CheckIn(scope, rest, id, req.TableID, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Guest seated", res)
}

func (rc *ReservationController) MarkNoShow(c *gin.Context) {
	rest, scope, ok := staffRestaurant(c, rc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "reservation_id")
	if !ok {
		return
	}
	res, err := rc.reservations.MarkNoShow(scope, rest, id, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation marked no-show", res)
}

func (rc *ReservationController) StaffCancel(c *gin.Context) {
	rest, scope, ok := staffRestaurant(c, rc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "reservation_id")
	if !ok {
		return
	}
	res, err := rc.reservations.Cancel(scope, rest, id, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", res)
}

func (rc *ReservationController) CompleteReservation(c *gin.Context) {
	_, scope, ok := staffRestaurant(c, rc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "reservation_id")
	if !ok {
		return
	}
	res, err := rc.reservations.Complete(scope, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation completed", res)
}
