package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehub/scheduling-engine/router"
)

func TestGetAvailabilityEndpoint(t *testing.T) {
	db := setupSchedulingDB(t, "ctrl_avail")
	rest := seedVenue(t, db)
	r := router.SetupRouter(db)

	date := bookingTime().Format("2006-01-02")
	w := performJSON(t, r, "GET",
		fmt.Sprintf("/restaurants/%d/availability?date=%s", rest.ID, date), "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "Availability for "+date, response["message"])

	data := response["data"].([]interface{})
	assert.Len(t, data, 24)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "available", first["status"])
	assert.Equal(t, float64(10), first["remaining"])
}

func TestGetAvailabilityRejectsBadDate(t *testing.T) {
	db := setupSchedulingDB(t, "ctrl_avail_bad")
	rest := seedVenue(t, db)
	r := router.SetupRouter(db)

	w := performJSON(t, r, "GET",
		fmt.Sprintf("/restaurants/%d/availability?date=september", rest.ID), "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAvailabilityUnknownRestaurant(t *testing.T) {
	db := setupSchedulingDB(t, "ctrl_avail_missing")
	seedVenue(t, db)
	r := router.SetupRouter(db)

	w := performJSON(t, r, "GET", "/restaurants/999/availability?date=2026-09-10", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
