package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleSettings adalah knob kapasitas per restoran. Semua angka punya
// default yang aman supaya restoran baru langsung bisa menerima booking.
type ScheduleSettings struct {
	SlotGranularityMin    int     `gorm:"not null;default:30" json:"slot_granularity_min"`
	DefaultDiningMin      int     `gorm:"not null;default:90" json:"default_dining_min"`
	MaxPartySize          int     `gorm:"not null;default:12" json:"max_party_size"`
	DiningUnitsPerSlot    int     `gorm:"not null;default:40" json:"dining_units_per_slot"`
	KitchenUnitsPerSlot   int     `gorm:"not null;default:20" json:"kitchen_units_per_slot"`
	DeliveryUnitsPerSlot  int     `gorm:"not null;default:6" json:"delivery_units_per_slot"`
	WalkInBufferUnits     int     `gorm:"not null;default:0" json:"walk_in_buffer_units"`
	LimitedThresholdPct   int     `gorm:"not null;default:20" json:"limited_threshold_pct"`
	MinAdvanceMin         int     `gorm:"not null;default:0" json:"min_advance_min"`
	MaxAdvanceDays        int     `gorm:"not null;default:30" json:"max_advance_days"`
	AutoConfirm           bool    `gorm:"not null;default:true" json:"auto_confirm"`
	ApprovalWindowMin     int     `gorm:"not null;default:15" json:"approval_window_min"`
	CustomerWindowMin     int     `gorm:"not null;default:30" json:"customer_window_min"`
	WaitlistWindowMin     int     `gorm:"not null;default:10" json:"waitlist_window_min"`
	WaitlistMaxCycles     int     `gorm:"not null;default:3" json:"waitlist_max_cycles"`
	AltCompensationPct    int     `gorm:"not null;default:0" json:"alt_compensation_pct"`
	DeliveryBaseFee       float64 `gorm:"not null;default:0" json:"delivery_base_fee"`
	DeliveryLimitedFeePct int     `gorm:"not null;default:0" json:"delivery_limited_fee_pct"`
}

// Granularity menormalkan granularitas slot di satu tempat; nilai nol
// atau negatif jatuh ke 30 menit supaya pemecahan slot tidak pernah
// menghasilkan window kosong.
func (s ScheduleSettings) Granularity() int {
	if s.SlotGranularityMin <= 0 {
		return 30
	}
	return s.SlotGranularityMin
}

type Restaurant struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	OrgID         uint             `gorm:"not null;index" json:"org_id"`
	Name          string           `gorm:"type:varchar(100);not null" json:"name"`
	Timezone      string           `gorm:"type:varchar(50);not null;default:'UTC'" json:"timezone"`
	Active        bool             `gorm:"not null;default:true" json:"active"`
	Settings      ScheduleSettings `gorm:"embedded" json:"settings"`
	OperatingHour []OperatingHours `gorm:"foreignKey:RestaurantID" json:"operating_hours,omitempty"`
	CreatedAt     time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null" json:"updated_at"`
}

// Location memuat timezone restoran; timezone rusak jatuh ke UTC supaya
// perhitungan slot tidak pernah gagal total.
func (r *Restaurant) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OperatingHours satu baris per (restoran, weekday). Weekday mengikuti
// time.Weekday: 0 = Minggu.
type OperatingHours struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"not null;index" json:"restaurant_id"`
	Weekday      int       `gorm:"not null" json:"weekday"`
	OpenTime     string    `gorm:"type:varchar(5);not null" json:"open_time"`  // "HH:MM"
	CloseTime    string    `gorm:"type:varchar(5);not null" json:"close_time"` // "HH:MM"
	Closed       bool      `gorm:"not null;default:false" json:"closed"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// ParseClock mengubah "HH:MM" menjadi menit sejak tengah malam.
func ParseClock(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	return hh*60 + mm, nil
}
