package services

import (
	"time"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// OrderService memiliki state machine negosiasi scheduled order:
// pending_restaurant_approval -> confirmed | alternatives_proposed |
// declined, dengan resolusi deadline otomatis. Kapasitas baru di-commit
// saat keputusan final, dan Conflict Detector dijalankan ulang tepat
// sebelum commit karena kapasitas bisa berubah sejak intake.
type OrderService struct {
	store        *repository.Store
	availability *AvailabilityService
	detector     *ConflictDetector
}

func NewOrderService(store *repository.Store, availability *AvailabilityService, detector *ConflictDetector) *OrderService {
	return &OrderService{store: store, availability: availability, detector: detector}
}

type IntakeOrderInput struct {
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	Fulfillment      string
	RequestedAt      time.Time
	EstimatedPrepMin int
	OrderTotal       float64
}

// request membangun CapacityRequest order: okupansi dapur adalah
// PrepWindow order (persiapan berakhir di waktu fulfillment), satu load
// unit per order, plus satu unit delivery di slot anchor untuk order
// delivery.
func (s *OrderService) request(scope repository.TenantKey, rest *models.Restaurant, order *models.ScheduledOrder, anchor time.Time) CapacityRequest {
	start, end := order.PrepWindow(anchor)
	lead := int(end.Sub(start) / time.Minute)
	return CapacityRequest{
		Scope:       scope,
		Restaurant:  rest,
		Kind:        models.LedgerKindKitchen,
		Anchor:      anchor,
		LeadMin:     lead,
		DurationMin: lead,
		Units:       1,
		Delivery:    order.Fulfillment == models.FulfillmentDelivery,
	}
}

// Intake mengevaluasi waktu yang diminta dan mencatat hasilnya tanpa
// commit ledger. had_conflict disimpan karena menentukan resolusi saat
// restoran diam sampai deadline.
func (s *OrderService) Intake(scope repository.TenantKey, rest *models.Restaurant, in IntakeOrderInput, now time.Time) (*models.ScheduledOrder, Decision, error) {
	if in.CustomerName == "" {
		return nil, Decision{}, &models.ValidationError{Field: "customer_name", Reason: "required"}
	}
	if in.CustomerPhone == "" && in.CustomerEmail == "" {
		return nil, Decision{}, &models.ValidationError{Field: "customer_contact", Reason: "phone or email required"}
	}
	if in.Fulfillment != models.FulfillmentPickup && in.Fulfillment != models.FulfillmentDelivery {
		return nil, Decision{}, &models.ValidationError{Field: "fulfillment", Reason: "must be pickup or delivery"}
	}
	if in.EstimatedPrepMin <= 0 {
		in.EstimatedPrepMin = rest.Settings.Granularity()
	}
	if !s.availability.InBookingWindow(rest, in.RequestedAt, now) {
		return nil, Decision{}, &models.ValidationError{Field: "requested_at", Reason: "outside the booking window"}
	}

	order := &models.ScheduledOrder{
		OrgID:            scope.OrgID,
		RestaurantID:     scope.RestaurantID,
		CustomerName:     in.CustomerName,
		CustomerPhone:    in.CustomerPhone,
		CustomerEmail:    in.CustomerEmail,
		Fulfillment:      in.Fulfillment,
		RequestedAt:      in.RequestedAt,
		EstimatedPrepMin: in.EstimatedPrepMin,
		OrderTotal:       in.OrderTotal,
		Status:           models.OrderStatusPendingApproval,
		ApprovalDeadline: now.Add(time.Duration(rest.Settings.ApprovalWindowMin) * time.Minute),
	}

	decision, err := s.detector.Evaluate(s.request(scope, rest, order, order.RequestedAt), now)
	if err != nil {
		return nil, Decision{}, err
	}
	order.HadConflict = !decision.OK

	if err := s.store.Orders.Create(order); err != nil {
		return nil, Decision{}, err
	}
	utils.InfoLogger.Printf("scheduled order %d intake (fulfillment=%s, requested=%s, conflict=%v)",
		order.ID, order.Fulfillment, order.RequestedAt.Format(time.RFC3339), order.HadConflict)
	return order, decision, nil
}

// resolveDeadlines menerapkan deadline yang sudah lewat secara lazy pada
// setiap read/write yang menyentuh order. Diam sampai deadline: tanpa
// konflik saat intake berarti confirmed (melindungi customer dari restoran
// yang bisu), dengan konflik berarti declined, tidak pernah approve.
func (s *OrderService) resolveDeadlines(scope repository.TenantKey, rest *models.Restaurant, order *models.ScheduledOrder, now time.Time) error {
	switch order.Status {
	case models.OrderStatusPendingApproval:
		if now.Before(order.ApprovalDeadline) {
			return nil
		}
		if order.HadConflict {
			return s.autoDecline(scope, order)
		}
		return s.autoConfirm(scope, rest, order, now)
	case models.OrderStatusAltProposed:
		if order.CustomerDeadline == nil || now.Before(*order.CustomerDeadline) {
			return nil
		}
		return s.autoDecline(scope, order)
	default:
		return nil
	}
}

func (s *OrderService) autoConfirm(scope repository.TenantKey, rest *models.Restaurant, order *models.ScheduledOrder, now time.Time) error {
	if !models.OrderCanTransition(order.Status, models.OrderStatusConfirmed) {
		return &models.StateTransitionError{Entity: "scheduled_order", Current: order.Status, Attempted: models.OrderStatusConfirmed}
	}
	req := s.request(scope, rest, order, order.RequestedAt)
	err := bookCapacity(s.store, s.detector, req, now, func(tx *repository.Store) error {
		confirmed := order.RequestedAt
		order.Status = models.OrderStatusConfirmed
		order.ConfirmedAt = &confirmed
		return tx.Orders.Save(order)
	})
	if err == nil {
		emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentOrderAutoApproved, models.ContactRef(order.CustomerPhone, order.CustomerEmail), order))
		utils.InfoLogger.Printf("scheduled order %d auto-approved at deadline", order.ID)
		return nil
	}
	if _, isConflict := err.(*models.CapacityConflict); isConflict {
		// kapasitas keburu habis antara intake dan deadline
		return s.autoDecline(scope, order)
	}
	return err
}

func (s *OrderService) autoDecline(scope repository.TenantKey, order *models.ScheduledOrder) error {
	if !models.OrderCanTransition(order.Status, models.OrderStatusDeclined) {
		return &models.StateTransitionError{Entity: "scheduled_order", Current: order.Status, Attempted: models.OrderStatusDeclined}
	}
	order.Status = models.OrderStatusDeclined
	if err := s.store.Orders.Save(order); err != nil {
		return err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentOrderAutoDeclined, models.ContactRef(order.CustomerPhone, order.CustomerEmail), order))
	utils.InfoLogger.Printf("scheduled order %d auto-declined at deadline", order.ID)
	return nil
}

// Get memuat order dan menerapkan deadline yang sudah lewat.
func (s *OrderService) Get(scope repository.TenantKey, rest *models.Restaurant, id uint, now time.Time) (*models.ScheduledOrder, error) {
	order, err := s.store.Orders.Get(scope, id)
	if err != nil {
		return nil, err
	}
	if err := checkScope(scope, "scheduled_order", order.ID, order.OrgID, order.RestaurantID); err != nil {
		return nil, err
	}
	if err := s.resolveDeadlines(scope, rest, order, now); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(scope repository.TenantKey, statuses []string) ([]models.ScheduledOrder, error) {
	return s.store.Orders.ListByRestaurant(scope, statuses)
}

// Approve aksi restoran: commit waktu yang diminta. Evaluasi dijalankan
// ulang di dalam bookCapacity tepat sebelum commit. Guard status lewat
// transition table, satu sumber kebenaran dengan resolusi deadline.
func (s *OrderService) Approve(scope repository.TenantKey, rest *models.Restaurant, id uint, now time.Time) (*models.ScheduledOrder, error) {
	order, err := s.Get(scope, rest, id, now)
	if err != nil {
		return nil, err
	}
	if !models.OrderCanTransition(order.Status, models.OrderStatusConfirmed) {
		return nil, &models.StateTransitionError{Entity: "scheduled_order", Current: order.Status, Attempted: models.OrderStatusConfirmed}
	}

	req := s.request(scope, rest, order, order.RequestedAt)
	err = bookCapacity(s.store, s.detector, req, now, func(tx *repository.Store) error {
		confirmed := order.RequestedAt
		order.Status = models.OrderStatusConfirmed
		order.ConfirmedAt = &confirmed
		return tx.Orders.Save(order)
	})
	if err != nil {
		return nil, err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentOrderApproved, models.ContactRef(order.CustomerPhone, order.CustomerEmail), order))
	return order, nil
}

// ProposeAlternatives aksi restoran: lampirkan alternatif ter-ranking dari
// detector, atau yang dipilih staff sendiri, dan beri customer deadline
// respons baru.
func (s *OrderService) ProposeAlternatives(scope repository.TenantKey, rest *models.Restaurant, id uint, staffTimes []time.Time, note string, now time.Time) (*models.ScheduledOrder, error) {
	order, err := s.Get(scope, rest, id, now)
	if err != nil {
		return nil, err
	}
	if !models.OrderCanTransition(order.Status, models.OrderStatusAltProposed) {
		return nil, &models.StateTransitionError{Entity: "scheduled_order", Current: order.Status, Attempted: models.OrderStatusAltProposed}
	}

	var alts []models.OrderAlternative
	if len(staffTimes) > 0 {
		for _, at := range staffTimes {
			if !s.availability.InBookingWindow(rest, at, now) {
				return nil, &models.ValidationError{Field: "alternatives", Reason: "proposed time outside the booking window"}
			}
			alts = append(alts, models.OrderAlternative{
				ProposedAt:      at,
				CompensationPct: rest.Settings.AltCompensationPct,
				Note:            note,
			})
		}
	} else {
		ranked, err := s.detector.Alternatives(s.request(scope, rest, order, order.RequestedAt), now)
		if err != nil {
			return nil, err
		}
		if len(ranked) == 0 {
			return nil, &models.ValidationError{Field: "alternatives", Reason: "no viable alternative slots"}
		}
		for _, alt := range ranked {
			alts = append(alts, models.OrderAlternative{
				ProposedAt:      alt.StartsAt,
				CompensationPct: alt.CompensationPct,
				Note:            note,
			})
		}
	}

	deadline := now.Add(time.Duration(rest.Settings.CustomerWindowMin) * time.Minute)
	order.Status = models.OrderStatusAltProposed
	order.CustomerDeadline = &deadline
	if err := s.store.Orders.ReplaceAlternatives(order, alts); err != nil {
		return nil, err
	}
	if err := s.store.Orders.Save(order); err != nil {
		return nil, err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentOrderAltProposed, models.ContactRef(order.CustomerPhone, order.CustomerEmail), order))
	return order, nil
}

// Respond aksi customer atas alternatif: accept commit waktu alternatif
// terpilih beserta kompensasinya, reject mengakhiri negosiasi.
func (s *OrderService) Respond(scope repository.TenantKey, rest *models.Restaurant, id uint, accept bool, altIndex int, now time.Time) (*models.ScheduledOrder, error) {
	order, err := s.Get(scope, rest, id, now)
	if err != nil {
		return nil, err
	}
	target := models.OrderStatusDeclined
	if accept {
		target = models.OrderStatusConfirmed
	}
	if !models.OrderCanTransition(order.Status, target) {
		return nil, &models.StateTransitionError{Entity: "scheduled_order", Current: order.Status, Attempted: target}
	}
	if order.CustomerDeadline == nil {
		// belum pernah ada usulan yang menunggu jawaban
		return nil, &models.StateTransitionError{Entity: "scheduled_order", Current: order.Status, Attempted: target}
	}

	if !accept {
		order.Status = models.OrderStatusDeclined
		order.CustomerDeadline = nil
		if err := s.store.Orders.Save(order); err != nil {
			return nil, err
		}
		emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentOrderDeclined, models.ContactRef(order.CustomerPhone, order.CustomerEmail), order))
		return order, nil
	}

	if altIndex < 0 || altIndex >= len(order.Alternatives) {
		return nil, &models.ValidationError{Field: "alternative_index", Reason: "out of range"}
	}
	chosen := order.Alternatives[altIndex]

	req := s.request(scope, rest, order, chosen.ProposedAt)
	err = bookCapacity(s.store, s.detector, req, now, func(tx *repository.Store) error {
		confirmed := chosen.ProposedAt
		order.Status = models.OrderStatusConfirmed
		order.ConfirmedAt = &confirmed
		order.CompensationPct = chosen.CompensationPct
		order.CustomerDeadline = nil
		return tx.Orders.Save(order)
	})
	if err != nil {
		return nil, err
	}
	emitIntent(s.store, models.NewIntent(scope.OrgID, scope.RestaurantID, models.IntentOrderApproved, models.ContactRef(order.CustomerPhone, order.CustomerEmail), order))
	utils.InfoLogger.Printf("scheduled order %d confirmed for %s (compensation=%d%%)",
		order.ID, chosen.ProposedAt.Format(time.RFC3339), chosen.CompensationPct)
	return order, nil
}

// ResolveExpired dipakai sweep monitor untuk order yang deadline-nya
// lewat tanpa pernah disentuh.
func (s *OrderService) ResolveExpired(now time.Time) {
	lapsed, err := s.store.Orders.ListPastDeadline(now)
	if err != nil {
		utils.ErrorLogger.Printf("order deadline sweep failed: %v", err)
		return
	}
	for i := range lapsed {
		order := &lapsed[i]
		scope := repository.TenantKey{OrgID: order.OrgID, RestaurantID: order.RestaurantID}
		rest, err := s.store.Catalog.GetRestaurant(order.OrgID, order.RestaurantID)
		if err != nil {
			utils.ErrorLogger.Printf("order sweep: restaurant %d lookup failed: %v", order.RestaurantID, err)
			continue
		}
		if err := s.resolveDeadlines(scope, rest, order, now); err != nil {
			utils.ErrorLogger.Printf("order sweep: order %d resolution failed: %v", order.ID, err)
		}
	}
}
