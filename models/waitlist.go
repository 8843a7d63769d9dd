package models

import "time"

// Status waitlist entry
const (
	WaitlistStatusActive    = "active"
	WaitlistStatusNotified  = "notified"
	WaitlistStatusSeated    = "seated"
	WaitlistStatusExpired   = "expired"
	WaitlistStatusCancelled = "cancelled"
)

type WaitlistEntry struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	OrgID          uint       `gorm:"not null;index" json:"org_id"`
	RestaurantID   uint       `gorm:"not null;index" json:"restaurant_id"`
	CustomerName   string     `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerPhone  string     `gorm:"type:varchar(30)" json:"customer_phone"`
	CustomerEmail  string     `gorm:"type:varchar(100)" json:"customer_email"`
	PartySize      int        `gorm:"not null" json:"party_size"`
	WindowStart    time.Time  `gorm:"not null;index" json:"window_start"`
	WindowEnd      time.Time  `gorm:"not null" json:"window_end"`
	Status         string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	NotifyDeadline *time.Time `json:"notify_deadline,omitempty"`
	SilentCycles   int        `gorm:"not null;default:0" json:"silent_cycles"`
	ConfirmHash    string     `gorm:"type:varchar(80);not null" json:"-"`
	CreatedAt      time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

// WantsWindow true jika window preferensi entry beririsan dengan [from, to).
func (w *WaitlistEntry) WantsWindow(from, to time.Time) bool {
	return w.WindowStart.Before(to) && from.Before(w.WindowEnd)
}

var waitlistTransitions = map[string][]string{
	WaitlistStatusActive:   {WaitlistStatusNotified, WaitlistStatusExpired, WaitlistStatusCancelled},
	WaitlistStatusNotified: {WaitlistStatusSeated, WaitlistStatusActive, WaitlistStatusExpired, WaitlistStatusCancelled},
}

func WaitlistCanTransition(from, to string) bool {
	for _, next := range waitlistTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
