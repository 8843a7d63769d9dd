package models

import "time"

// Status reservasi
const (
	ReservationStatusPending   = "pending"
	ReservationStatusConfirmed = "confirmed"
	ReservationStatusSeated    = "seated"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
	ReservationStatusNoShow    = "no_show"
)

type Reservation struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OrgID            uint       `gorm:"not null;index" json:"org_id"`
	RestaurantID     uint       `gorm:"not null;index" json:"restaurant_id"`
	TableID          *uint      `gorm:"index" json:"table_id,omitempty"`
	Table            *Table     `gorm:"foreignKey:TableID" json:"table,omitempty"`
	ConfirmationCode string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"confirmation_code"`
	CustomerName     string     `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerPhone    string     `gorm:"type:varchar(30)" json:"customer_phone"`
	CustomerEmail    string     `gorm:"type:varchar(100)" json:"customer_email"`
	PartySize        int        `gorm:"not null" json:"party_size"`
	StartsAt         time.Time  `gorm:"not null;index" json:"starts_at"`
	DurationMin      int        `gorm:"not null" json:"duration_min"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	SpecialRequests  string     `gorm:"type:text" json:"special_requests"`
	SeatedAt         *time.Time `json:"seated_at,omitempty"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updated_at"`
}

// EndsAt akhir window okupansi meja.
func (r *Reservation) EndsAt() time.Time {
	return r.StartsAt.Add(time.Duration(r.DurationMin) * time.Minute)
}

// Overlaps true jika window reservasi beririsan dengan [from, to).
func (r *Reservation) Overlaps(from, to time.Time) bool {
	return r.StartsAt.Before(to) && from.Before(r.EndsAt())
}

var reservationTransitions = map[string][]string{
	ReservationStatusPending:   {ReservationStatusConfirmed, ReservationStatusCancelled},
	ReservationStatusConfirmed: {ReservationStatusSeated, ReservationStatusCancelled, ReservationStatusNoShow},
	ReservationStatusSeated:    {ReservationStatusCompleted},
}

// ReservationCanTransition memeriksa tabel transisi tertutup.
func ReservationCanTransition(from, to string) bool {
	for _, next := range reservationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
