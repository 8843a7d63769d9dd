package models

import "time"

// Jenis ledger kapasitas. Dine-in dihitung dalam party-size unit,
// kitchen dan delivery dihitung satu unit per order per slot.
const (
	LedgerKindDining   = "dining"
	LedgerKindKitchen  = "kitchen"
	LedgerKindDelivery = "delivery"
)

// SlotLedger adalah counter kapasitas per (restoran, tanggal, slot, jenis).
// UsedUnits hanya boleh dimutasi lewat conditional commit di repository;
// baris dibuat lazily saat slot pertama kali disentuh.
type SlotLedger struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrgID        uint      `gorm:"not null;index" json:"org_id"`
	RestaurantID uint      `gorm:"not null;uniqueIndex:idx_slot_ledger" json:"restaurant_id"`
	SlotDate     string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_slot_ledger" json:"slot_date"` // "2006-01-02"
	SlotStartMin int       `gorm:"not null;uniqueIndex:idx_slot_ledger" json:"slot_start_min"`             // menit sejak tengah malam
	Kind         string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_slot_ledger" json:"kind"`
	UsedUnits    int       `gorm:"not null;default:0" json:"used_units"`
	MaxUnits     int       `gorm:"not null" json:"max_units"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// SlotRef mengidentifikasi satu slot pada grid sebuah restoran.
type SlotRef struct {
	Date     string `json:"date"`
	StartMin int    `json:"start_min"`
}

// SlotsCovering memecah window [start, start+duration) menjadi slot ref
// bergranularitas granularityMin, dalam timezone loc. Window yang melewati
// tengah malam menghasilkan slot pada dua tanggal.
func SlotsCovering(start time.Time, durationMin, granularityMin int, loc *time.Location) []SlotRef {
	if granularityMin <= 0 || durationMin <= 0 {
		return nil
	}
	end := start.Add(time.Duration(durationMin) * time.Minute)
	local := start.In(loc)
	// mundur ke batas slot
	minutes := local.Hour()*60 + local.Minute()
	aligned := local.Add(-time.Duration(minutes%granularityMin) * time.Minute)
	aligned = aligned.Truncate(time.Minute)

	var refs []SlotRef
	for t := aligned; t.Before(end.In(loc)); t = t.Add(time.Duration(granularityMin) * time.Minute) {
		refs = append(refs, SlotRef{
			Date:     t.Format("2006-01-02"),
			StartMin: t.Hour()*60 + t.Minute(),
		})
	}
	return refs
}

// SlotTime kebalikan dari SlotsCovering untuk satu ref.
func SlotTime(ref SlotRef, loc *time.Location) time.Time {
	day, _ := time.ParseInLocation("2006-01-02", ref.Date, loc)
	return day.Add(time.Duration(ref.StartMin) * time.Minute)
}
