package models

import "time"

type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrgID        uint      `gorm:"not null;index" json:"org_id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	TableNumber  string    `gorm:"type:varchar(50);not null" json:"table_number"`
	Capacity     int       `gorm:"not null" json:"capacity"`
	LocationTag  string    `gorm:"type:varchar(50)" json:"location_tag"` // "patio", "window", ...
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
