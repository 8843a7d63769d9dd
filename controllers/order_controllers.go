package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/services"
	"github.com/dinehub/scheduling-engine/utils"
)

type OrderController struct {
	store  *repository.Store
	orders *services.OrderService
}

func NewOrderController(store *repository.Store, orders *services.OrderService) *OrderController {
	return &OrderController{store: store, orders: orders}
}

// IntakeOrder -> scheduled order masuk selalu diterima (pending approval);
// hasil cek kapasitas dilampirkan supaya customer tahu resikonya di muka.
func (oc *OrderController) IntakeOrder(c *gin.Context) {
	rest, scope, ok := publicRestaurant(c, oc.store)
	if !ok {
		return
	}

	var req struct {
		CustomerName     string    `json:"customer_name" binding:"required"`
		CustomerPhone    string    `json:"customer_phone"`
		CustomerEmail    string    `json:"customer_email"`
		Fulfillment      string    `json:"fulfillment" binding:"required"`
		RequestedAt      time.Time `json:"requested_at" binding:"required"`
		EstimatedPrepMin int       `json:"estimated_prep_min"`
		OrderTotal       float64   `json:"order_total"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, decision, err := oc.orders.Intake(scope, rest, services.IntakeOrderInput{
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		Fulfillment:      req.Fulfillment,
		RequestedAt:      req.RequestedAt,
		EstimatedPrepMin: req.EstimatedPrepMin,
		OrderTotal:       req.OrderTotal,
	}, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order received, awaiting restaurant approval", gin.H{
		"order":    order,
		"capacity": decision,
	})
}

// RespondToAlternatives -> jawaban customer atas usulan jadwal pengganti
func (oc *OrderController) RespondToAlternatives(c *gin.Context) {
	rest, scope, ok := publicRestaurant(c, oc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	var req struct {
		Accept           bool `json:"accept"`
		AlternativeIndex int  `json:"alternative_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := oc.orders.Respond(scope, rest, id, req.Accept, req.AlternativeIndex, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order response recorded", order)
}

// ---------- staff surface ----------

func (oc *OrderController) ListOrders(c *gin.Context) {
	_, scope, ok := staffRestaurant(c, oc.store)
	if !ok {
		return
	}
	var statuses []string
	if s := c.Query("status"); s != "" {
		statuses = strings.Split(s, ",")
	}
	list, err := oc.orders.List(scope, statuses)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of scheduled orders", list)
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	rest, scope, ok := staffRestaurant(c, oc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.orders.Get(scope, rest, id, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

func (oc *OrderController) ApproveOrder(c *gin.Context) {
	rest, scope, ok := staffRestaurant(c, oc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.orders.Approve(scope, rest, id, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order approved", order)
}

// ProposeAlternatives -> staff menawarkan jadwal pengganti; tanpa input
// eksplisit sistem memakai kandidat terdekat dari detector.
func (oc *OrderController) ProposeAlternatives(c *gin.Context) {
	rest, scope, ok := staffRestaurant(c, oc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	var req struct {
		ProposedTimes []time.Time `json:"proposed_times"`
		Note          string      `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	order, err := oc.orders.ProposeAlternatives(scope, rest, id, req.ProposedTimes, req.Note, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Alternatives proposed to customer", order)
}
