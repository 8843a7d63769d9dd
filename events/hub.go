package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/utils"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub menampung dashboard staff yang tersambung, di-key per restoran
// supaya broadcast tetap ter-scope tenant.
type Hub struct {
	clients map[*websocket.Conn]uint // conn -> restaurant id
	mutex   sync.Mutex
}

var engineHub = Hub{
	clients: make(map[*websocket.Conn]uint),
}

// RegisterClient -> menambahkan connection untuk satu restoran
func RegisterClient(conn *websocket.Conn, restaurantID uint) {
	engineHub.mutex.Lock()
	defer engineHub.mutex.Unlock()
	engineHub.clients[conn] = restaurantID
}

// UnregisterClient -> melepaskan connection
func UnregisterClient(conn *websocket.Conn) {
	engineHub.mutex.Lock()
	defer engineHub.mutex.Unlock()
	delete(engineHub.clients, conn)
	conn.Close()
}

// BroadcastIntent -> menyiarkan notification intent ke dashboard restoran
// terkait. Pengiriman ke customer tetap urusan dispatcher eksternal.
func BroadcastIntent(intent models.NotificationIntent) {
	broadcast(intent.RestaurantID, Message{
		Event: intent.Kind,
		Data:  intent,
	})
}

func broadcast(restaurantID uint, msg Message) {
	engineHub.mutex.Lock()
	defer engineHub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling event: %v", err)
		return
	}

	for conn, rid := range engineHub.clients {
		if rid != restaurantID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending event to client: %v", err)
			continue
		}
	}
}
