package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/services"
	"github.com/dinehub/scheduling-engine/utils"
)

type AvailabilityController struct {
	store        *repository.Store
	availability *services.AvailabilityService
}

func NewAvailabilityController(store *repository.Store, availability *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{store: store, availability: availability}
}

// GetAvailability -> grid slot kandidat untuk satu tanggal, dihitung
// fresh dari ledger saat dipanggil
func (ac *AvailabilityController) GetAvailability(c *gin.Context) {
	rest, scope, ok := publicRestaurant(c, ac.store)
	if !ok {
		return
	}

	date := c.Query("date")
	if _, err := time.ParseInLocation("2006-01-02", date, rest.Location()); err != nil {
		respondServiceError(c, &models.ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"})
		return
	}

	q := services.AvailabilityQuery{Date: date, Kind: c.Query("kind")}
	if party := c.Query("party_size"); party != "" {
		n, err := strconv.Atoi(party)
		if err != nil || n <= 0 {
			respondServiceError(c, &models.ValidationError{Field: "party_size", Reason: "must be a positive number"})
			return
		}
		q.PartySize = n
	}
	if from := c.Query("from"); from != "" {
		min, err := models.ParseClock(from)
		if err != nil {
			respondServiceError(c, &models.ValidationError{Field: "from", Reason: "expected HH:MM"})
			return
		}
		q.FromMin = min
	}
	if to := c.Query("to"); to != "" {
		min, err := models.ParseClock(to)
		if err != nil {
			respondServiceError(c, &models.ValidationError{Field: "to", Reason: "expected HH:MM"})
			return
		}
		q.ToMin = min
	}

	slots, err := ac.availability.GetAvailability(scope, rest, q, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Availability for "+date, slots)
}
