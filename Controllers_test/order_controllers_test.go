package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehub/scheduling-engine/router"
	"github.com/dinehub/scheduling-engine/utils"
)

func TestIntakeAndApproveOrder(t *testing.T) {
	db := setupSchedulingDB(t, "ctrl_order")
	rest := seedVenue(t, db)
	r := router.SetupRouter(db)

	w := performJSON(t, r, "POST",
		fmt.Sprintf("/restaurants/%d/orders", rest.ID), "", map[string]interface{}{
			"customer_name":      "Andi",
			"customer_phone":     "0812000333",
			"fulfillment":        "pickup",
			"requested_at":       bookingTime().Format(time.RFC3339),
			"estimated_prep_min": 30,
			"order_total":        125000.0,
		})
	require.Equal(t, http.StatusCreated, w.Code)
	response := decodeBody(t, w)
	assert.Equal(t, "Order received, awaiting restaurant approval", response["message"])
	data := response["data"].(map[string]interface{})
	order := data["order"].(map[string]interface{})
	assert.Equal(t, "pending_restaurant_approval", order["status"])
	require.Contains(t, data, "capacity")
	orderID := uint(order["id"].(float64))

	managerToken, err := utils.GenerateTenantToken(rest.OrgID, rest.ID, 3, "manager")
	require.NoError(t, err)
	w = performJSON(t, r, "PATCH",
		fmt.Sprintf("/staff/restaurants/%d/orders/%d/approve", rest.ID, orderID),
		managerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	response = decodeBody(t, w)
	approved := response["data"].(map[string]interface{})
	assert.Equal(t, "confirmed", approved["status"])
	assert.NotEmpty(t, approved["confirmed_at"])
}

func TestProposeAlternativesAndCustomerRejects(t *testing.T) {
	db := setupSchedulingDB(t, "ctrl_order_alt")
	rest := seedVenue(t, db)
	r := router.SetupRouter(db)

	w := performJSON(t, r, "POST",
		fmt.Sprintf("/restaurants/%d/orders", rest.ID), "", map[string]interface{}{
			"customer_name":      "Rina",
			"fulfillment":        "pickup",
			"requested_at":       bookingTime().Format(time.RFC3339),
			"estimated_prep_min": 30,
		})
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	orderID := uint(data["order"].(map[string]interface{})["id"].(float64))

	managerToken, err := utils.GenerateTenantToken(rest.OrgID, rest.ID, 3, "manager")
	require.NoError(t, err)
	alternative := bookingTime().Add(30 * time.Minute)
	w = performJSON(t, r, "POST",
		fmt.Sprintf("/staff/restaurants/%d/orders/%d/alternatives", rest.ID, orderID),
		managerToken, map[string]interface{}{
			"proposed_times": []string{alternative.Format(time.RFC3339)},
			"note":           "Dapur penuh di jam itu",
		})
	require.Equal(t, http.StatusOK, w.Code)
	proposed := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "alternatives_proposed", proposed["status"])
	alts := proposed["alternatives"].([]interface{})
	require.Len(t, alts, 1)

	// customer menolak -> order turun ke declined
	w = performJSON(t, r, "POST",
		fmt.Sprintf("/restaurants/%d/orders/%d/respond", rest.ID, orderID), "",
		map[string]interface{}{"accept": false})
	require.Equal(t, http.StatusOK, w.Code)
	declined := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "declined", declined["status"])
}

func TestStaffOrderRoutesNeedRole(t *testing.T) {
	db := setupSchedulingDB(t, "ctrl_order_role")
	rest := seedVenue(t, db)
	r := router.SetupRouter(db)

	waiterToken, err := utils.GenerateTenantToken(rest.OrgID, rest.ID, 4, "waiter")
	require.NoError(t, err)
	w := performJSON(t, r, "GET",
		fmt.Sprintf("/staff/restaurants/%d/orders", rest.ID), waiterToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	kitchenToken, err := utils.GenerateTenantToken(rest.OrgID, rest.ID, 5, "kitchen")
	require.NoError(t, err)
	w = performJSON(t, r, "GET",
		fmt.Sprintf("/staff/restaurants/%d/orders", rest.ID), kitchenToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
