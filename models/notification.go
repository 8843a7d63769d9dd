package models

import (
	"encoding/json"
	"time"
)

// Jenis notification intent yang dipancarkan engine. Pengiriman aktual
// (SMS/email/push) dilakukan dispatcher eksternal.
const (
	IntentReservationPending   = "reservation_pending"
	IntentReservationConfirmed = "reservation_confirmed"
	IntentReservationCancelled = "reservation_cancelled"
	IntentReservationSeated    = "reservation_seated"
	IntentReservationNoShow    = "reservation_no_show"
	IntentOrderApproved        = "order_approved"
	IntentOrderAutoApproved    = "order_auto_approved"
	IntentOrderDeclined        = "order_declined"
	IntentOrderAutoDeclined    = "order_auto_declined"
	IntentOrderAltProposed     = "order_alternatives_proposed"
	IntentWaitlistPromoted     = "waitlist_promoted"
	IntentWaitlistExpired      = "waitlist_expired"
)

type NotificationIntent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrgID        uint      `gorm:"not null;index" json:"org_id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	Kind         string    `gorm:"type:varchar(50);not null" json:"kind"`
	RecipientRef string    `gorm:"type:varchar(100);not null" json:"recipient_ref"`
	Payload      string    `gorm:"type:text;not null" json:"payload"`
	Dispatched   bool      `gorm:"not null;default:false" json:"dispatched"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

// ContactRef memilih tujuan notifikasi customer: telepon bila ada,
// selain itu email. Validasi intake menjamin minimal salah satu terisi.
func ContactRef(phone, email string) string {
	if phone != "" {
		return phone
	}
	return email
}

// NewIntent membungkus payload arbitrer menjadi intent siap simpan.
func NewIntent(orgID, restaurantID uint, kind, recipient string, payload interface{}) NotificationIntent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("{}")
	}
	return NotificationIntent{
		OrgID:        orgID,
		RestaurantID: restaurantID,
		Kind:         kind,
		RecipientRef: recipient,
		Payload:      string(raw),
	}
}
