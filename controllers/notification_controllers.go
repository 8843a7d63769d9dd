package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// NotificationController mengekspos antrian notification intent ke
// dispatcher eksternal (email/SMS gateway) lewat staff API.
type NotificationController struct {
	store *repository.Store
}

func NewNotificationController(store *repository.Store) *NotificationController {
	return &NotificationController{store: store}
}

func (nc *NotificationController) ListPending(c *gin.Context) {
	_, scope, ok := staffRestaurant(c, nc.store)
	if !ok {
		return
	}
	list, err := nc.store.Intents.ListPending(scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending notification intents", list)
}

func (nc *NotificationController) MarkDispatched(c *gin.Context) {
	_, scope, ok := staffRestaurant(c, nc.store)
	if !ok {
		return
	}
	id, ok := idParam(c, "intent_id")
	if !ok {
		return
	}
	if err := nc.store.Intents.MarkDispatched(scope, id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Intent marked dispatched", gin.H{"id": id})
}
