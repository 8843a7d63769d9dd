package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// WaitlistService memiliki entry yang menunggu kapasitas kosong dan
// algoritma promosinya: strict FIFO by created_at, tanpa tier prioritas.
type WaitlistService struct {
	store        *repository.Store
	availability *AvailabilityService
	detector     *ConflictDetector
}

func NewWaitlistService(store *repository.Store, availability *AvailabilityService, detector *ConflictDetector) *WaitlistService {
	return &WaitlistService{store: store, availability: availability, detector: detector}
}

type JoinWaitlistInput struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	PartySize     int
	WindowStart   time.Time
	WindowEnd     time.Time
}

// Add mendaftarkan customer yang booking-nya gagal karena kapasitas.
// Mengembalikan kode konfirmasi plaintext sekali saja; yang disimpan
// hanya hash bcrypt-nya.
func (s *WaitlistService) Add(scope repository.TenantKey, rest *models.Restaurant, in JoinWaitlistInput, now time.Time) (*models.WaitlistEntry, string, error) {
	if in.PartySize <= 0 {
		return nil, "", &models.ValidationError{Field: "party_size", Reason: "must be at least 1"}
	}
	if in.PartySize > rest.Settings.MaxPartySize {
		return nil, "", &models.ValidationError{Field: "party_size", Reason: "exceeds restaurant ceiling"}
	}
	if in.CustomerName == "" {
		return nil, "", &models.ValidationError{Field: "customer_name", Reason: "required"}
	}
	if !in.WindowStart.Before(in.WindowEnd) {
		return nil, "", &models.ValidationError{Field: "window", Reason: "window_start must precede window_end"}
	}
	if in.WindowEnd.Before(now) {
		return nil, "", &models.ValidationError{Field: "window", Reason: "window already passed"}
	}

	code := strings.Split(uuid.NewString(), "-")[0]
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	entry := &models.WaitlistEntry{
		OrgID:         scope.OrgID,
		RestaurantID:  scope.RestaurantID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,
		PartySize:     in.PartySize,
		WindowStart:   in.WindowStart,
		WindowEnd:     in.WindowEnd,
		Status:        models.WaitlistStatusActive,
		ConfirmHash:   string(hash),
	}
	if err := s.store.Waitlist.Create(entry); err != nil {
		return nil, "", err
	}
	utils.InfoLogger.Printf("waitlist entry %d added (party=%d, window=%s..%s)",
		entry.ID, entry.PartySize, entry.WindowStart.Format("15:04"), entry.WindowEnd.Format("15:04"))
	return entry, code, nil
}

// Promote dipanggil setiap kali kapasitas lepas (cancel, no-show,
// decline). Kandidat paling awal yang window-nya beririsan dengan slot
// kosong dipindah ke notified dengan deadline respons pendek. Satu entry
// per event pelepasan.
func (s *WaitlistService) Promote(scope repository.TenantKey, rest *models.Restaurant, from, to time.Time, now time.Time) {
	entry, err := s.store.Waitlist.FirstActiveOverlapping(scope, from, to, 0)
	if errors.Is(err, models.ErrNotFound) {
		return
	}
	if err != nil {
		utils.ErrorLogger.Printf("waitlist promotion scan failed: %v", err)
		return
	}

	deadline := now.Add(time.Duration(rest.Settings.WaitlistWindowMin) * time.Minute)
	entry.Status = models.WaitlistStatusNotified
	entry.NotifyDeadline = &deadline
	if err := s.store.Waitlist.Save(entry); err != nil {
		utils.ErrorLogger.Printf("waitlist promotion save failed: %v", err)
		return
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentWaitlistPromoted, models.ContactRef(entry.CustomerPhone, entry.CustomerEmail), entry))
	utils.InfoLogger.Printf("waitlist entry %d promoted, respond by %s", entry.ID, deadline.Format(time.RFC3339))
}

// touch menerapkan deadline secara lazy: entry notified yang deadline-nya
// lewat kembali ke active (atau expired setelah diam berulang kali).
// Transisi kedaluwarsa adalah perubahan state normal, bukan error.
func (s *WaitlistService) touch(rest *models.Restaurant, entry *models.WaitlistEntry, now time.Time) error {
	if entry.Status != models.WaitlistStatusNotified || entry.NotifyDeadline == nil || now.Before(*entry.NotifyDeadline) {
		return nil
	}
	entry.SilentCycles++
	entry.NotifyDeadline = nil
	if entry.SilentCycles >= rest.Settings.WaitlistMaxCycles {
		entry.Status = models.WaitlistStatusExpired
		emitIntent(s.store, models.NewIntent(entry.OrgID, entry.RestaurantID, models.IntentWaitlistExpired, models.ContactRef(entry.CustomerPhone, entry.CustomerEmail), entry))
	} else {
		entry.Status = models.WaitlistStatusActive
	}
	return s.store.Waitlist.Save(entry)
}

func (s *WaitlistService) Get(scope repository.TenantKey, rest *models.Restaurant, id uint, now time.Time) (*models.WaitlistEntry, error) {
	entry, err := s.store.Waitlist.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(scope, "waitlist_entry", entry.ID, entry.OrgID, entry.RestaurantID); err != nil {
		return nil, err
	}
	if err := s.touch(rest, entry, now); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *WaitlistService) List(scope repository.TenantKey) ([]models.WaitlistEntry, error) {
	return s.store.Waitlist.ListByRestaurant(scope)
}

// Confirm menukar promosi menjadi reservasi lewat jalur conditional
// commit biasa; entry yang kalah race kembali ke active, tidak pernah
// menerobos counter.
func (s *WaitlistService) Confirm(scope repository.TenantKey, rest *models.Restaurant, id uint, code string, now time.Time) (*models.Reservation, error) {
	entry, err := s.Get(scope, rest, id, now)
	if err != nil {
		return nil, err
	}
	if entry.Status != models.WaitlistStatusNotified {
		return nil, &models.StateTransitionError{Entity: "waitlist_entry", Current: entry.Status, Attempted: models.WaitlistStatusSeated}
	}
	if bcrypt.CompareHashAndPassword([]byte(entry.ConfirmHash), []byte(code)) != nil {
		return nil, &models.ValidationError{Field: "confirm_code", Reason: "does not match"}
	}

	// anchor di awal window preferensi, diluruskan ke batas slot
	gran := rest.Settings.Granularity()
	refs := models.SlotsCovering(entry.WindowStart, gran, gran, rest.Location())
	startsAt := entry.WindowStart
	if len(refs) > 0 {
		startsAt = models.SlotTime(refs[0], rest.Location())
	}

	res := &models.Reservation{
		OrgID:            scope.OrgID,
		RestaurantID:     scope.RestaurantID,
		ConfirmationCode: uuid.NewString(),
		CustomerName:     entry.CustomerName,
		CustomerPhone:    entry.CustomerPhone,
		CustomerEmail:    entry.CustomerEmail,
		PartySize:        entry.PartySize,
		StartsAt:         startsAt,
		DurationMin:      rest.Settings.DefaultDiningMin,
		Status:           models.ReservationStatusConfirmed,
	}
	req := CapacityRequest{
		Scope:       scope,
		Restaurant:  rest,
		Kind:        models.LedgerKindDining,
		Anchor:      startsAt,
		DurationMin: res.DurationMin,
		Units:       res.PartySize,
	}
	err = bookCapacity(s.store, s.detector, req, now, func(tx *repository.Store) error {
		return tx.Reservations.Create(res)
	})
	var conflict *models.CapacityConflict
	if errors.As(err, &conflict) {
		// slot keburu diambil booking lain; entry kembali antre
		entry.Status = models.WaitlistStatusActive
		entry.NotifyDeadline = nil
		if saveErr := s.store.Waitlist.Save(entry); saveErr != nil {
			return nil, saveErr
		}
		return nil, conflict
	}
	if err != nil {
		return nil, err
	}

	entry.Status = models.WaitlistStatusSeated
	entry.NotifyDeadline = nil
	if err := s.store.Waitlist.Save(entry); err != nil {
		return nil, err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentReservationConfirmed, models.ContactRef(res.CustomerPhone, res.CustomerEmail), res))
	return res, nil
}

// CancelEntry idempoten, sama seperti cancel reservasi.
func (s *WaitlistService) CancelEntry(scope repository.TenantKey, id uint) (*models.WaitlistEntry, error) {
	entry, err := s.store.Waitlist.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(scope, "waitlist_entry", entry.ID, entry.OrgID, entry.RestaurantID); err != nil {
		return nil, err
	}
	if entry.Status == models.WaitlistStatusCancelled {
		return entry, nil
	}
	if !models.WaitlistCanTransition(entry.Status, models.WaitlistStatusCancelled) {
		return nil, &models.StateTransitionError{Entity: "waitlist_entry", Current: entry.Status, Attempted: models.WaitlistStatusCancelled}
	}
	entry.Status = models.WaitlistStatusCancelled
	entry.NotifyDeadline = nil
	if err := s.store.Waitlist.Save(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ExpireStale sweep periodik: entry yang window-nya sudah lewat jadi
// expired, entry notified yang deadline-nya lewat dikembalikan ke antrean
// dan kandidat berikutnya langsung dipromosikan.
func (s *WaitlistService) ExpireStale(now time.Time) {
	lapsed, err := s.store.Waitlist.ListNotifiedPastDeadline(now)
	if err != nil {
		utils.ErrorLogger.Printf("waitlist deadline sweep failed: %v", err)
		return
	}
	for i := range lapsed {
		entry := &lapsed[i]
		scope := repository.TenantKey{OrgID: entry.OrgID, RestaurantID: entry.RestaurantID}
		rest, err := s.store.Catalog.GetRestaurant(entry.OrgID, entry.RestaurantID)
		if err != nil {
			utils.ErrorLogger.Printf("waitlist sweep: restaurant %d lookup failed: %v", entry.RestaurantID, err)
			continue
		}
		if err := s.touch(rest, entry, now); err != nil {
			utils.ErrorLogger.Printf("waitlist sweep: entry %d touch failed: %v", entry.ID, err)
			continue
		}
		// giliran berikutnya untuk window yang sama
		s.Promote(scope, rest, entry.WindowStart, entry.WindowEnd, now)
	}

	stale, err := s.store.Waitlist.ListStale(now)
	if err != nil {
		utils.ErrorLogger.Printf("waitlist stale sweep failed: %v", err)
		return
	}
	for i := range stale {
		entry := &stale[i]
		entry.Status = models.WaitlistStatusExpired
		entry.NotifyDeadline = nil
		if err := s.store.Waitlist.Save(entry); err != nil {
			utils.ErrorLogger.Printf("waitlist sweep: entry %d expire failed: %v", entry.ID, err)
			continue
		}
		emitIntent(s.store, models.NewIntent(entry.OrgID, entry.RestaurantID, models.IntentWaitlistExpired, models.ContactRef(entry.CustomerPhone, entry.CustomerEmail), entry))
	}
}
