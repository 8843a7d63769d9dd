package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// ReservationService memiliki state machine reservasi:
// pending -> confirmed -> seated -> completed, dengan cabang cancelled
// dan no_show. Semua commit kapasitas lewat disiplin conditional commit
// yang sama dengan scheduled order.
type ReservationService struct {
	store        *repository.Store
	availability *AvailabilityService
	detector     *ConflictDetector
	waitlist     *WaitlistService
}

func NewReservationService(store *repository.Store, availability *AvailabilityService, detector *ConflictDetector, waitlist *WaitlistService) *ReservationService {
	return &ReservationService{
		store:        store,
		availability: availability,
		detector:     detector,
		waitlist:     waitlist,
	}
}

type CreateReservationInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	PartySize       int
	StartsAt        time.Time
	DurationMin     int
	SpecialRequests string
}

func (s *ReservationService) validate(rest *models.Restaurant, in CreateReservationInput, now time.Time) error {
	if in.PartySize <= 0 {
		return &models.ValidationError{Field: "party_size", Reason: "must be at least 1"}
	}
	if in.PartySize > rest.Settings.MaxPartySize {
		return &models.ValidationError{Field: "party_size",
			Reason: fmt.Sprintf("exceeds restaurant ceiling of %d", rest.Settings.MaxPartySize)}
	}
	if in.CustomerName == "" {
		return &models.ValidationError{Field: "customer_name", Reason: "required"}
	}
	if in.CustomerPhone == "" && in.CustomerEmail == "" {
		return &models.ValidationError{Field: "customer_contact", Reason: "phone or email required"}
	}
	if !s.availability.InBookingWindow(rest, in.StartsAt, now) {
		return &models.ValidationError{Field: "starts_at", Reason: "outside the booking window"}
	}
	return nil
}

func (s *ReservationService) request(scope repository.TenantKey, rest *models.Restaurant, startsAt time.Time, durationMin, party int) CapacityRequest {
	return CapacityRequest{
		Scope:       scope,
		Restaurant:  rest,
		Kind:        models.LedgerKindDining,
		Anchor:      startsAt,
		DurationMin: durationMin,
		Units:       party,
	}
}

// Create memvalidasi, mengevaluasi konflik, lalu commit ledger dan insert
// reservasi dalam satu transaksi. Status awal confirmed, atau pending bila
// restoran mewajibkan konfirmasi manual.
func (s *ReservationService) Create(scope repository.TenantKey, rest *models.Restaurant, in CreateReservationInput, now time.Time) (*models.Reservation, error) {
	if err := s.validate(rest, in, now); err != nil {
		return nil, err
	}
	duration := in.DurationMin
	if duration <= 0 {
		duration = rest.Settings.DefaultDiningMin
	}

	status := models.ReservationStatusConfirmed
	if !rest.Settings.AutoConfirm {
		status = models.ReservationStatusPending
	}
	res := &models.Reservation{
		OrgID:            scope.OrgID,
		RestaurantID:     scope.RestaurantID,
		ConfirmationCode: uuid.NewString(),
		CustomerName:     in.CustomerName,
		CustomerPhone:    in.CustomerPhone,
		CustomerEmail:    in.CustomerEmail,
		PartySize:        in.PartySize,
		StartsAt:         in.StartsAt,
		DurationMin:      duration,
		Status:           status,
		SpecialRequests:  in.SpecialRequests,
	}

	req := s.request(scope, rest, in.StartsAt, duration, in.PartySize)
	err := bookCapacity(s.store, s.detector, req, now, func(tx *repository.Store) error {
		return tx.Reservations.Create(res)
	})
	if err != nil {
		return nil, err
	}

	kind := models.IntentReservationConfirmed
	if status == models.ReservationStatusPending {
		kind = models.IntentReservationPending
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, kind, models.ContactRef(res.CustomerPhone, res.CustomerEmail), res))
	utils.InfoLogger.Printf("reservation %d created (%s, party=%d, starts=%s)",
		res.ID, res.Status, res.PartySize, res.StartsAt.Format(time.RFC3339))
	return res, nil
}

func (s *ReservationService) Get(scope repository.TenantKey, id uint) (*models.Reservation, error) {
	res, err := s.store.Reservations.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(scope, "reservation", res.ID, res.OrgID, res.RestaurantID); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ReservationService) GetByCode(scope repository.TenantKey, code string) (*models.Reservation, error) {
	res, err := s.store.Reservations.GetByCode(scope, code)
	if err != nil {
		return nil, err
	}
	if err := checkScope(scope, "reservation", res.ID, res.OrgID, res.RestaurantID); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ReservationService) List(scope repository.TenantKey, statuses []string) ([]models.Reservation, error) {
	return s.store.Reservations.ListByRestaurant(scope, statuses)
}

// Confirm konfirmasi manual staff untuk reservasi pending.
func (s *ReservationService) Confirm(scope repository.TenantKey, id uint) (*models.Reservation, error) {
	res, err := s.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if res.Status == models.ReservationStatusConfirmed {
		return res, nil // idempoten
	}
	if !models.ReservationCanTransition(res.Status, models.ReservationStatusConfirmed) {
		return nil, &models.StateTransitionError{Entity: "reservation", Current: res.Status, Attempted: models.ReservationStatusConfirmed}
	}
	res.Status = models.ReservationStatusConfirmed
	if err := s.store.Reservations.Save(res); err != nil {
		return nil, err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentReservationConfirmed, models.ContactRef(res.CustomerPhone, res.CustomerEmail), res))
	return res, nil
}

// release melepas kapasitas reservasi lalu memicu promosi waitlist untuk
// window yang baru kosong. Promosi ikut pakai counter yang sama, jadi
// konfirmasinya tetap conditional commit biasa, bukan jalur istimewa.
func (s *ReservationService) release(scope repository.TenantKey, rest *models.Restaurant, res *models.Reservation, now time.Time) error {
	req := s.request(scope, rest, res.StartsAt, res.DurationMin, res.PartySize)
	if err := releaseRequest(s.store, req); err != nil {
		return err
	}
	s.waitlist.Promote(scope, rest, res.StartsAt, res.EndsAt(), now)
	return nil
}

// Cancel membatalkan dari pending/confirmed. Idempoten: cancel kedua pada
// reservasi yang sudah cancelled adalah no-op, bukan error, karena retry
// notifikasi memang diharapkan.
func (s *ReservationService) Cancel(scope repository.TenantKey, rest *models.Restaurant, id uint, now time.Time) (*models.Reservation, error) {
	res, err := s.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if res.Status == models.ReservationStatusCancelled {
		return res, nil
	}
	if !models.ReservationCanTransition(res.Status, models.ReservationStatusCancelled) {
		return nil, &models.StateTransitionError{Entity: "reservation", Current: res.Status, Attempted: models.ReservationStatusCancelled}
	}

	res.Status = models.ReservationStatusCancelled
	if err := s.store.Reservations.Save(res); err != nil {
		return nil, err
	}
	if err := s.release(scope, rest, res, now); err != nil {
		return nil, err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentReservationCancelled, models.ContactRef(res.CustomerPhone, res.CustomerEmail), res))
	utils.InfoLogger.Printf("reservation %d cancelled", res.ID)
	return res, nil
}

// MarkNoShow hanya boleh setelah jam mulai lewat tanpa check-in. Efek
// kapasitasnya identik dengan cancel tapi dicatat terpisah.
func (s *ReservationService) MarkNoShow(scope repository.TenantKey, rest *models.Restaurant, id uint, now time.Time) (*models.Reservation, error) {
	res, err := s.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if res.Status == models.ReservationStatusNoShow {
		return res, nil // idempoten
	}
	if now.Before(res.StartsAt) {
		return nil, &models.ValidationError{Field: "starts_at", Reason: "reservation has not started yet"}
	}
	if !models.ReservationCanTransition(res.Status, models.ReservationStatusNoShow) {
		return nil, &models.StateTransitionError{Entity: "reservation", Current: res.Status, Attempted: models.ReservationStatusNoShow}
	}

	res.Status = models.ReservationStatusNoShow
	if err := s.store.Reservations.Save(res); err != nil {
		return nil, err
	}
	if err := s.release(scope, rest, res, now); err != nil {
		return nil, err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentReservationNoShow, models.ContactRef(res.CustomerPhone, res.CustomerEmail), res))
	return res, nil
}

// CheckIn transisi confirmed -> seated dengan penugasan meja best-fit:
// meja aktif terkecil yang kapasitasnya >= party size dan belum dipakai
// reservasi lain di window yang sama. Host boleh memaksa meja tertentu
// lewat tableID; pilihan itu tetap divalidasi kapasitas dan okupansinya.
// Meja lama yang sudah dinonaktifkan di-fallback ke unit lain tanpa
// membatalkan reservasi.
func (s *ReservationService) CheckIn(scope repository.TenantKey, rest *models.Restaurant, id uint, tableID *uint, now time.Time) (*models.Reservation, error) {
	res, err := s.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if !models.ReservationCanTransition(res.Status, models.ReservationStatusSeated) {
		return nil, &models.StateTransitionError{Entity: "reservation", Current: res.Status, Attempted: models.ReservationStatusSeated}
	}

	var table *models.Table
	if tableID != nil {
		table, err = s.requestedTable(scope, res, *tableID)
	} else {
		table, err = s.bestFitTable(scope, res)
	}
	if err != nil {
		return nil, err
	}
	if table != nil {
		res.TableID = &table.ID
		res.Table = table
	}
	res.Status = models.ReservationStatusSeated
	seatedAt := now
	res.SeatedAt = &seatedAt
	if err := s.store.Reservations.Save(res); err != nil {
		return nil, err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentReservationSeated, models.ContactRef(res.CustomerPhone, res.CustomerEmail), res))
	return res, nil
}

// requestedTable memvalidasi meja pilihan host: harus aktif, muat untuk
// party size, dan belum dipakai reservasi lain di window yang sama.
func (s *ReservationService) requestedTable(scope repository.TenantKey, res *models.Reservation, id uint) (*models.Table, error) {
	table, err := s.store.Catalog.GetTable(scope, id)
	if err != nil {
		return nil, err
	}
	if !table.Active || table.Capacity < res.PartySize {
		return nil, &models.ValidationError{Field: "table_id", Reason: "table inactive or too small for the party"}
	}
	overlapping, err := s.store.Reservations.ListOverlapping(scope, res.StartsAt, res.EndsAt())
	if err != nil {
		return nil, err
	}
	for _, other := range overlapping {
		if other.ID != res.ID && other.TableID != nil && *other.TableID == table.ID {
			return nil, &models.ValidationError{Field: "table_id", Reason: "table already seated in this window"}
		}
	}
	return table, nil
}

// bestFitTable: best-fit, bukan first-fit, untuk mengurangi fragmentasi
// meja besar.
func (s *ReservationService) bestFitTable(scope repository.TenantKey, res *models.Reservation) (*models.Table, error) {
	tables, err := s.store.Catalog.ListActiveTables(scope) // sudah diurut kapasitas naik
	if err != nil {
		return nil, err
	}
	overlapping, err := s.store.Reservations.ListOverlapping(scope, res.StartsAt, res.EndsAt())
	if err != nil {
		return nil, err
	}
	occupied := make(map[uint]bool)
	for _, other := range overlapping {
		if other.ID != res.ID && other.TableID != nil {
			occupied[*other.TableID] = true
		}
	}

	// meja yang sudah ditugaskan tetap dipakai selama masih aktif dan cukup
	if res.TableID != nil {
		for _, t := range tables {
			if t.ID == *res.TableID && t.Capacity >= res.PartySize {
				return &t, nil
			}
		}
	}
	for _, t := range tables {
		if t.Capacity >= res.PartySize && !occupied[t.ID] {
			return &t, nil
		}
	}
	return nil, nil // tidak ada unit pas; seat tetap jalan tanpa penugasan
}

// Complete menutup reservasi yang sudah seated.
func (s *ReservationService) Complete(scope repository.TenantKey, id uint) (*models.Reservation, error) {
	res, err := s.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if res.Status == models.ReservationStatusCompleted {
		return res, nil
	}
	if !models.ReservationCanTransition(res.Status, models.ReservationStatusCompleted) {
		return nil, &models.StateTransitionError{Entity: "reservation", Current: res.Status, Attempted: models.ReservationStatusCompleted}
	}
	res.Status = models.ReservationStatusCompleted
	if err := s.store.Reservations.Save(res); err != nil {
		return nil, err
	}
	return res, nil
}

type UpdateReservationInput struct {
	PartySize   int
	StartsAt    time.Time
	DurationMin int
}

// Update mengubah waktu/party size sebagai cancel-then-recreate terhadap
// parameter baru: commit unit baru dulu, release unit lama di transaksi
// yang sama, sehingga kenaikan party yang tidak muat ditolak atomik tanpa
// state setengah jalan.
func (s *ReservationService) Update(scope repository.TenantKey, rest *models.Restaurant, id uint, in UpdateReservationInput, now time.Time) (*models.Reservation, error) {
	res, err := s.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if res.Status != models.ReservationStatusPending && res.Status != models.ReservationStatusConfirmed {
		return nil, &models.StateTransitionError{Entity: "reservation", Current: res.Status, Attempted: "update"}
	}

	newParty := res.PartySize
	if in.PartySize > 0 {
		newParty = in.PartySize
	}
	newStart := res.StartsAt
	if !in.StartsAt.IsZero() {
		newStart = in.StartsAt
	}
	newDuration := res.DurationMin
	if in.DurationMin > 0 {
		newDuration = in.DurationMin
	}
	check := CreateReservationInput{
		CustomerName:  res.CustomerName,
		CustomerPhone: res.CustomerPhone,
		CustomerEmail: res.CustomerEmail,
		PartySize:     newParty,
		StartsAt:      newStart,
	}
	if err := s.validate(rest, check, now); err != nil {
		return nil, err
	}

	oldReq := s.request(scope, rest, res.StartsAt, res.DurationMin, res.PartySize)
	oldStart, oldEnd := res.StartsAt, res.EndsAt()
	newReq := s.request(scope, rest, newStart, newDuration, newParty)

	// cancel-then-recreate dalam satu transaksi: release unit lama dulu
	// supaya pergeseran di slot yang sama tidak konflik dengan dirinya
	// sendiri, lalu conditional commit parameter baru. Rollback
	// mengembalikan unit lama utuh.
	commit := func() error {
		return s.store.Transaction(func(tx *repository.Store) error {
			if err := releaseRequest(tx, oldReq); err != nil {
				return err
			}
			if err := commitRequest(tx, newReq); err != nil {
				return err
			}
			res.PartySize = newParty
			res.StartsAt = newStart
			res.DurationMin = newDuration
			return tx.Reservations.Save(res)
		})
	}
	err = commit()
	for attempt := 0; errors.Is(err, models.ErrConcurrencyConflict) && attempt < commitRetries; attempt++ {
		err = commit()
	}
	if errors.Is(err, models.ErrConcurrencyConflict) {
		decision, evalErr := s.detector.Evaluate(newReq, now)
		if evalErr != nil {
			return nil, evalErr
		}
		return nil, &models.CapacityConflict{Reasons: []string{models.ReasonTableCapacity}, Alternatives: decision.Alternatives}
	}
	if err != nil {
		return nil, err
	}

	s.waitlist.Promote(scope, rest, oldStart, oldEnd, now)
	utils.InfoLogger.Printf("reservation %d rescheduled to %s (party=%d)", res.ID, newStart.Format(time.RFC3339), newParty)
	return res, nil
}
