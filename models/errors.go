package models

import (
	"errors"
	"fmt"
	"time"
)

// Alasan konflik kapasitas (tag terstruktur, bukan teks bebas).
const (
	ReasonTableCapacity    = "table_capacity_exceeded"
	ReasonKitchenLoad      = "kitchen_load_high"
	ReasonDeliveryCapacity = "delivery_capacity_limited"
)

// Alternative adalah satu slot pengganti yang masih punya kapasitas pada
// saat diusulkan. CompensationPct berasal dari konfigurasi restoran.
type Alternative struct {
	StartsAt        time.Time `json:"starts_at"`
	RemainingUnits  int       `json:"remaining_units"`
	CompensationPct int       `json:"compensation_pct,omitempty"`
}

// ValidationError: input di luar range, ditolak sebelum menyentuh ledger.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// CapacityConflict: tidak ada kapasitas, selalu membawa alternatif supaya
// caller bisa langsung menawarkannya.
type CapacityConflict struct {
	Reasons      []string
	Alternatives []Alternative
}

func (e *CapacityConflict) Error() string {
	return fmt.Sprintf("capacity conflict: %v", e.Reasons)
}

// StateTransitionError membawa status aktual supaya UI bisa resync.
type StateTransitionError struct {
	Entity    string
	Current   string
	Attempted string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot go from %s to %s", e.Entity, e.Current, e.Attempted)
}

// TenantScopeError: referensi lintas tenant. Fatal, tidak pernah di-retry.
type TenantScopeError struct {
	Entity string
	ID     uint
}

func (e *TenantScopeError) Error() string {
	return fmt.Sprintf("%s %d is outside the caller tenant scope", e.Entity, e.ID)
}

// ErrConcurrencyConflict: conditional commit kalah race. Di-retry internal,
// tidak pernah sampai ke end user.
var ErrConcurrencyConflict = errors.New("capacity commit lost a concurrent race")

// ErrNotFound dipakai repository saat entity tidak ada dalam scope tenant.
var ErrNotFound = errors.New("record not found")
