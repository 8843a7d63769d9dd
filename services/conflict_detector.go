package services

import (
	"sort"
	"time"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
)

// maxAlternatives jumlah slot alternatif yang diusulkan saat konflik.
const maxAlternatives = 3

// CapacityRequest adalah satu permintaan kapasitas yang dinegosiasikan.
// Anchor adalah waktu yang dilihat customer (jam reservasi, atau waktu
// fulfillment order); okupansi aktual dimulai LeadMin sebelum Anchor.
type CapacityRequest struct {
	Scope       repository.TenantKey
	Restaurant  *models.Restaurant
	Kind        string // ledger utama: dining atau kitchen
	Anchor      time.Time
	LeadMin     int
	DurationMin int
	Units       int
	Delivery    bool // konsumsi satu unit delivery di slot Anchor
}

// Window mengembalikan window okupansi [start, end).
func (r CapacityRequest) Window() (time.Time, time.Time) {
	start := r.Anchor.Add(-time.Duration(r.LeadMin) * time.Minute)
	return start, start.Add(time.Duration(r.DurationMin) * time.Minute)
}

// Refs slot yang dicakup window okupansi.
func (r CapacityRequest) Refs() []models.SlotRef {
	start, _ := r.Window()
	return models.SlotsCovering(start, r.DurationMin, r.Restaurant.Settings.Granularity(), r.Restaurant.Location())
}

func (r CapacityRequest) deliveryRef() models.SlotRef {
	refs := models.SlotsCovering(r.Anchor, 1, r.Restaurant.Settings.Granularity(), r.Restaurant.Location())
	return refs[0]
}

// Decision hasil evaluasi. Conflict selalu membawa alternatif ter-ranking
// supaya kedua lifecycle manager menawarkan hal yang sama.
type Decision struct {
	OK           bool                 `json:"ok"`
	Reasons      []string             `json:"reasons,omitempty"`
	Alternatives []models.Alternative `json:"alternatives,omitempty"`
}

// ConflictDetector adalah fungsi keputusan murni di atas ledger: tidak ada
// side effect I/O, dipakai bersama oleh reservasi dan scheduled order.
type ConflictDetector struct {
	availability *AvailabilityService
}

func NewConflictDetector(availability *AvailabilityService) *ConflictDetector {
	return &ConflictDetector{availability: availability}
}

// evalCtx meng-cache pembacaan remaining per (kind, date) selama satu
// evaluasi saja; tidak pernah hidup lintas request.
type evalCtx struct {
	availability *AvailabilityService
	scope        repository.TenantKey
	rest         *models.Restaurant
	remaining    map[string]map[int]int
}

func (c *evalCtx) fetch(kind, date string) (map[int]int, error) {
	key := kind + "|" + date
	if m, ok := c.remaining[key]; ok {
		return m, nil
	}
	m, err := c.availability.RemainingByDate(c.scope, c.rest, kind, date)
	if err != nil {
		return nil, err
	}
	c.remaining[key] = m
	return m, nil
}

// minRemaining sisa terkecil di seluruh slot yang dicakup request; slot di
// luar grid operating hours dihitung 0.
func (c *evalCtx) minRemaining(req CapacityRequest) (int, error) {
	min := int(^uint(0) >> 1)
	for _, ref := range req.Refs() {
		m, err := c.fetch(req.Kind, ref.Date)
		if err != nil {
			return 0, err
		}
		left, onGrid := m[ref.StartMin]
		if !onGrid {
			return 0, nil
		}
		if left < min {
			min = left
		}
	}
	return min, nil
}

func (c *evalCtx) deliveryRemaining(req CapacityRequest) (int, error) {
	ref := req.deliveryRef()
	m, err := c.fetch(models.LedgerKindDelivery, ref.Date)
	if err != nil {
		return 0, err
	}
	left, onGrid := m[ref.StartMin]
	if !onGrid {
		return 0, nil
	}
	return left, nil
}

func (c *evalCtx) fits(req CapacityRequest) (bool, error) {
	left, err := c.minRemaining(req)
	if err != nil {
		return false, err
	}
	if left < req.Units {
		return false, nil
	}
	if req.Delivery && req.Restaurant.Settings.DeliveryUnitsPerSlot > 0 {
		dleft, err := c.deliveryRemaining(req)
		if err != nil {
			return false, err
		}
		if dleft < 1 {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate memutuskan ok/konflik untuk request pada state ledger saat ini.
// Window yang mencakup beberapa slot harus punya kapasitas di semuanya.
func (d *ConflictDetector) Evaluate(req CapacityRequest, now time.Time) (Decision, error) {
	ctx := &evalCtx{
		availability: d.availability,
		scope:        req.Scope,
		rest:         req.Restaurant,
		remaining:    make(map[string]map[int]int),
	}

	var reasons []string
	left, err := ctx.minRemaining(req)
	if err != nil {
		return Decision{}, err
	}
	if left < req.Units {
		if req.Kind == models.LedgerKindKitchen {
			reasons = append(reasons, models.ReasonKitchenLoad)
		} else {
			reasons = append(reasons, models.ReasonTableCapacity)
		}
	}
	if req.Delivery && req.Restaurant.Settings.DeliveryUnitsPerSlot > 0 {
		dleft, err := ctx.deliveryRemaining(req)
		if err != nil {
			return Decision{}, err
		}
		if dleft < 1 {
			reasons = append(reasons, models.ReasonDeliveryCapacity)
		}
	}

	if len(reasons) == 0 {
		return Decision{OK: true}, nil
	}

	alts, err := d.rankAlternatives(ctx, req, now)
	if err != nil {
		return Decision{}, err
	}
	return Decision{OK: false, Reasons: reasons, Alternatives: alts}, nil
}

// Alternatives mengembalikan kandidat ter-ranking tanpa memutuskan
// konflik; dipakai saat staff menawarkan alternatif atas diskresi sendiri.
func (d *ConflictDetector) Alternatives(req CapacityRequest, now time.Time) ([]models.Alternative, error) {
	ctx := &evalCtx{
		availability: d.availability,
		scope:        req.Scope,
		rest:         req.Restaurant,
		remaining:    make(map[string]map[int]int),
	}
	return d.rankAlternatives(ctx, req, now)
}

type altCandidate struct {
	anchor    time.Time
	distance  time.Duration
	remaining int
}

// rankAlternatives memindai grid hari yang sama untuk anchor pengganti
// yang masih muat: diurutkan jarak absolut dari anchor asli, seri dipecah
// dengan sisa kapasitas terbanyak, maksimal maxAlternatives. Setiap
// alternatif dijamin lolos kapasitas saat diusulkan.
func (d *ConflictDetector) rankAlternatives(ctx *evalCtx, req CapacityRequest, now time.Time) ([]models.Alternative, error) {
	loc := req.Restaurant.Location()
	date := req.Anchor.In(loc).Format("2006-01-02")

	var candidates []altCandidate
	for _, ref := range d.availability.Grid(req.Restaurant, date) {
		anchor := models.SlotTime(ref, loc).Add(time.Duration(req.LeadMin) * time.Minute)
		if anchor.Equal(req.Anchor) {
			continue
		}
		if !d.availability.InBookingWindow(req.Restaurant, anchor, now) {
			continue
		}
		shifted := req
		shifted.Anchor = anchor
		ok, err := ctx.fits(shifted)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		left, err := ctx.minRemaining(shifted)
		if err != nil {
			return nil, err
		}
		dist := anchor.Sub(req.Anchor)
		if dist < 0 {
			dist = -dist
		}
		candidates = append(candidates, altCandidate{anchor: anchor, distance: dist, remaining: left})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		if candidates[i].remaining != candidates[j].remaining {
			return candidates[i].remaining > candidates[j].remaining
		}
		return candidates[i].anchor.Before(candidates[j].anchor)
	})
	if len(candidates) > maxAlternatives {
		candidates = candidates[:maxAlternatives]
	}

	alts := make([]models.Alternative, 0, len(candidates))
	for _, c := range candidates {
		alts = append(alts, models.Alternative{
			StartsAt:        c.anchor,
			RemainingUnits:  c.remaining,
			CompensationPct: req.Restaurant.Settings.AltCompensationPct,
		})
	}
	return alts, nil
}
