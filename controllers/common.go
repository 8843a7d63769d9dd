package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// publicRestaurant memuat restoran untuk endpoint customer tanpa login;
// scope tenant diturunkan dari baris restoran.
func publicRestaurant(c *gin.Context, store *repository.Store) (*models.Restaurant, repository.TenantKey, bool) {
	id, err := strconv.Atoi(c.Param("restaurant_id"))
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid restaurant id"))
		return nil, repository.TenantKey{}, false
	}
	rest, err := store.Catalog.FindRestaurant(uint(id))
	if err != nil {
		respondServiceError(c, err)
		return nil, repository.TenantKey{}, false
	}
	if !rest.Active {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not accepting bookings"))
		return nil, repository.TenantKey{}, false
	}
	return rest, repository.TenantKey{OrgID: rest.OrgID, RestaurantID: rest.ID}, true
}

// staffRestaurant memuat restoran untuk endpoint staff; path harus cocok
// dengan klaim tenant di token, selisih apa pun diperlakukan sebagai
// referensi lintas tenant.
func staffRestaurant(c *gin.Context, store *repository.Store) (*models.Restaurant, repository.TenantKey, bool) {
	id, err := strconv.Atoi(c.Param("restaurant_id"))
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid restaurant id"))
		return nil, repository.TenantKey{}, false
	}
	orgID := c.GetUint("org_id")
	claimRestaurant := c.GetUint("restaurant_id")
	if claimRestaurant != uint(id) {
		respondServiceError(c, &models.TenantScopeError{Entity: "restaurant", ID: uint(id)})
		return nil, repository.TenantKey{}, false
	}
	rest, err := store.Catalog.GetRestaurant(orgID, uint(id))
	if err != nil {
		respondServiceError(c, err)
		return nil, repository.TenantKey{}, false
	}
	return rest, repository.TenantKey{OrgID: orgID, RestaurantID: rest.ID}, true
}

// respondServiceError memetakan taksonomi error engine ke kode HTTP.
// CapacityConflict selalu membawa alternatif, StateTransitionError
// membawa status aktual supaya UI bisa resync.
func respondServiceError(c *gin.Context, err error) {
	var validation *models.ValidationError
	var conflict *models.CapacityConflict
	var transition *models.StateTransitionError
	var tenant *models.TenantScopeError

	switch {
	case errors.As(err, &validation):
		utils.RespondError(c, http.StatusBadRequest, validation)
	case errors.As(err, &conflict):
		utils.RespondJSON(c, http.StatusConflict, "no capacity for the requested time", gin.H{
			"reasons":      conflict.Reasons,
			"alternatives": conflict.Alternatives,
		})
	case errors.As(err, &transition):
		utils.RespondJSON(c, http.StatusConflict, transition.Error(), gin.H{
			"current_status": transition.Current,
		})
	case errors.As(err, &tenant):
		// jangan bocorkan keberadaan resource lintas tenant
		utils.RespondError(c, http.StatusNotFound, models.ErrNotFound)
	case errors.Is(err, models.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}
