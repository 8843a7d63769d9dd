package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/services"
	"github.com/dinehub/scheduling-engine/utils"
)

type WaitlistController struct {
	store    *repository.Store
	waitlist *services.WaitlistService
}

func NewWaitlistController(store *repository.Store, waitlist *services.WaitlistService) *WaitlistController {
	return &WaitlistController{store: store, waitlist: waitlist}
}

// JoinWaitlist -> daftar langsung ke waitlist untuk window tertentu
func (wc *WaitlistController) JoinWaitlist(c *gin.Context) {
	rest, scope, ok := publicRestaurant(c, wc.store)
	if !ok {
		return
	}
	var req struct {
		CustomerName  string    `json:"customer_name" binding:"required"`
		CustomerPhone string    `json:"customer_phone"`
		CustomerEmail string    `json:"customer_email"`
		PartySize     int       `json:"party_size" binding:"required"`
		WindowStart   time.Time `json:"window_start" binding:"required"`
		WindowEnd     time.Time `json:"window_end" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	entry, code, err := wc.waitlist.Add(scope, rest, services.JoinWaitlistInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		PartySize:     req.PartySize,
		WindowStart:   req.WindowStart,
		WindowEnd:     req.WindowEnd,
	}, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	// kode konfirmasi hanya muncul sekali di response ini
	utils.RespondJSON(c, http.StatusCreated, "Added to waitlist", gin.H{
		"entry":        entry,
		"confirm_code": code,
	})
}

// ConfirmSlot -> customer yang dinotifikasi mengklaim slotnya dengan kode
func (wc *WaitlistController) ConfirmSlot(c *gin.Context) {
	rest, scope, ok := publicRestaurant(c, wc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "entry_id")
	if !ok {
		return
	}
	var req struct {
		ConfirmCode string `json:"confirm_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	res, err := wc.waitlist.Confirm(scope, rest, id, req.ConfirmCode, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waitlist slot confirmed", res)
}

// LeaveWaitlist -> batal antri, idempoten
func (wc *WaitlistController) LeaveWaitlist(c *gin.Context) {
	_, scope, ok := publicRestaurant(c, wc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "entry_id")
	if !ok {
		return
	}
	entry, err := wc.waitlist.CancelEntry(scope, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waitlist entry cancelled", entry)
}

// ListWaitlist -> antrian untuk staff, urutan FIFO
func (wc *WaitlistController) ListWaitlist(c *gin.Context) {
	_, scope, ok := staffRestaurant(c, wc.store)
	if !ok {
		return
	}
	list, err := wc.waitlist.List(scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waitlist entries", list)
}
