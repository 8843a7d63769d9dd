package services

import (
	"sort"
	"time"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
)

// Status slot untuk tampilan availability
const (
	SlotAvailable   = "available"
	SlotLimited     = "limited"
	SlotUnavailable = "unavailable"
)

// SlotAvailability adalah satu slot kandidat beserta sisa kapasitasnya.
// Nilai turunan, tidak pernah disimpan.
type SlotAvailability struct {
	StartsAt         time.Time `json:"starts_at"`
	StartMin         int       `json:"start_min"`
	DurationMin      int       `json:"duration_min"`
	Remaining        int       `json:"remaining"`
	MaxUnits         int       `json:"max_units"`
	Status           string    `json:"status"`
	EstimatedPrepMin int       `json:"estimated_prep_min,omitempty"`
	DeliveryFee      float64   `json:"delivery_fee,omitempty"`
}

// AvailabilityQuery filter opsional dari caller.
type AvailabilityQuery struct {
	Date      string // "2006-01-02", wajib
	FromMin   int    // filter jam, 0 = tanpa filter
	ToMin     int
	PartySize int    // 0 = tampilkan semua
	Kind      string // default dining
}

type AvailabilityService struct {
	store *repository.Store
}

func NewAvailabilityService(store *repository.Store) *AvailabilityService {
	return &AvailabilityService{store: store}
}

// Grid menurunkan batas slot dari operating hours untuk tanggal tersebut.
// Deterministik: dua caller dengan input sama selalu melihat grid yang sama.
func (s *AvailabilityService) Grid(rest *models.Restaurant, date string) []models.SlotRef {
	loc := rest.Location()
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil
	}
	gran := rest.Settings.Granularity()
	weekday := int(day.Weekday())

	var refs []models.SlotRef
	for _, hours := range rest.OperatingHour {
		if hours.Weekday != weekday || hours.Closed {
			continue
		}
		open, err := models.ParseClock(hours.OpenTime)
		if err != nil {
			continue
		}
		close, err := models.ParseClock(hours.CloseTime)
		if err != nil || close <= open {
			continue
		}
		for start := open; start+gran <= close; start += gran {
			refs = append(refs, models.SlotRef{Date: date, StartMin: start})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].StartMin < refs[j].StartMin })
	return refs
}

// bookingWindow memotong grid ke [now+minAdvance, now+maxAdvanceDays].
func (s *AvailabilityService) bookingWindow(rest *models.Restaurant, now time.Time) (time.Time, time.Time) {
	earliest := now.Add(time.Duration(rest.Settings.MinAdvanceMin) * time.Minute)
	latest := now.AddDate(0, 0, rest.Settings.MaxAdvanceDays)
	return earliest, latest
}

// InBookingWindow memeriksa apakah waktu t masih bisa dibooking sekarang.
func (s *AvailabilityService) InBookingWindow(rest *models.Restaurant, t, now time.Time) bool {
	earliest, latest := s.bookingWindow(rest, now)
	return !t.Before(earliest) && !t.After(latest)
}

func maxUnitsFor(rest *models.Restaurant, kind string) int {
	switch kind {
	case models.LedgerKindKitchen:
		return rest.Settings.KitchenUnitsPerSlot
	case models.LedgerKindDelivery:
		return rest.Settings.DeliveryUnitsPerSlot
	default:
		return rest.Settings.DiningUnitsPerSlot
	}
}

// RemainingByDate membaca ledger fresh dan mengembalikan sisa unit per
// slot untuk satu (tanggal, jenis). Buffer walk-in hanya mengurangi
// kapasitas dining.
func (s *AvailabilityService) RemainingByDate(scope repository.TenantKey, rest *models.Restaurant, kind, date string) (map[int]int, error) {
	used, err := s.store.Ledger.UsedByDate(scope, kind, date)
	if err != nil {
		return nil, err
	}
	max := maxUnitsFor(rest, kind)
	buffer := 0
	if kind == models.LedgerKindDining {
		buffer = rest.Settings.WalkInBufferUnits
	}
	remaining := make(map[int]int)
	for _, ref := range s.Grid(rest, date) {
		remaining[ref.StartMin] = max - used[ref.StartMin] - buffer
	}
	return remaining, nil
}

func slotStatus(remaining, max, thresholdPct int) string {
	switch {
	case remaining <= 0:
		return SlotUnavailable
	case max > 0 && remaining*100 <= max*thresholdPct:
		return SlotLimited
	default:
		return SlotAvailable
	}
}

// GetAvailability mengembalikan urutan slot kandidat untuk satu tanggal.
// Murni fungsi dari state ledger saat dipanggil; tidak ada cache lintas
// request karena staleness langsung berarti over-booking.
func (s *AvailabilityService) GetAvailability(scope repository.TenantKey, rest *models.Restaurant, q AvailabilityQuery, now time.Time) ([]SlotAvailability, error) {
	kind := q.Kind
	if kind == "" {
		kind = models.LedgerKindDining
	}
	remaining, err := s.RemainingByDate(scope, rest, kind, q.Date)
	if err != nil {
		return nil, err
	}

	loc := rest.Location()
	max := maxUnitsFor(rest, kind)
	earliest, latest := s.bookingWindow(rest, now)

	var kitchenUsed map[int]int
	if kind == models.LedgerKindDelivery || kind == models.LedgerKindKitchen {
		kitchenUsed, err = s.store.Ledger.UsedByDate(scope, models.LedgerKindKitchen, q.Date)
		if err != nil {
			return nil, err
		}
	}

	slots := make([]SlotAvailability, 0)
	for _, ref := range s.Grid(rest, q.Date) {
		if q.FromMin > 0 && ref.StartMin < q.FromMin {
			continue
		}
		if q.ToMin > 0 && ref.StartMin >= q.ToMin {
			continue
		}
		at := models.SlotTime(ref, loc)
		if at.Before(earliest) || at.After(latest) {
			continue
		}

		left := remaining[ref.StartMin]
		status := slotStatus(left, max, rest.Settings.LimitedThresholdPct)
		if q.PartySize > 0 && left < q.PartySize {
			status = SlotUnavailable
		}
		slot := SlotAvailability{
			StartsAt:    at,
			StartMin:    ref.StartMin,
			DurationMin: rest.Settings.Granularity(),
			Remaining:   left,
			MaxUnits:    max,
			Status:      status,
		}
		// anotasi delivery: estimasi prep naik mengikuti okupansi dapur,
		// fee dinamis saat slot limited
		if kind == models.LedgerKindDelivery || kind == models.LedgerKindKitchen {
			slot.EstimatedPrepMin = estimatePrep(rest, kitchenUsed[ref.StartMin])
			if kind == models.LedgerKindDelivery {
				slot.DeliveryFee = deliveryFee(rest, status)
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// estimatePrep: prep dasar = granularitas slot, diskalakan dengan beban
// dapur berjalan (tiap 50% okupansi menambah satu granularitas).
func estimatePrep(rest *models.Restaurant, kitchenUsed int) int {
	base := rest.Settings.Granularity()
	max := rest.Settings.KitchenUnitsPerSlot
	if max <= 0 {
		return base
	}
	return base + base*(kitchenUsed*2/max)/2
}

func deliveryFee(rest *models.Restaurant, status string) float64 {
	fee := rest.Settings.DeliveryBaseFee
	if status == SlotLimited && rest.Settings.DeliveryLimitedFeePct > 0 {
		fee += fee * float64(rest.Settings.DeliveryLimitedFeePct) / 100
	}
	return fee
}
