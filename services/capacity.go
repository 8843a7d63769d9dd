package services

import (
	"errors"
	"time"

	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// commitRetries batas retry internal saat conditional commit kalah race.
// Setelah habis, jawaban jujurnya adalah "tidak ada tempat".
const commitRetries = 2

// commitRequest menulis okupansi request ke ledger di dalam store (boleh
// store transaksional). Conditional: gagal dengan ErrConcurrencyConflict
// bila kapasitas berubah sejak evaluasi.
func commitRequest(store *repository.Store, req CapacityRequest) error {
	err := store.Ledger.CommitUnits(req.Scope, req.Kind, req.Refs(), req.Units,
		maxUnitsFor(req.Restaurant, req.Kind))
	if err != nil {
		return err
	}
	if req.Delivery && req.Restaurant.Settings.DeliveryUnitsPerSlot > 0 {
		return store.Ledger.CommitUnits(req.Scope, models.LedgerKindDelivery,
			[]models.SlotRef{req.deliveryRef()}, 1, req.Restaurant.Settings.DeliveryUnitsPerSlot)
	}
	return nil
}

// releaseRequest melepas okupansi request. Decrement murni.
func releaseRequest(store *repository.Store, req CapacityRequest) error {
	if err := store.Ledger.ReleaseUnits(req.Scope, req.Kind, req.Refs(), req.Units); err != nil {
		return err
	}
	if req.Delivery && req.Restaurant.Settings.DeliveryUnitsPerSlot > 0 {
		return store.Ledger.ReleaseUnits(req.Scope, models.LedgerKindDelivery,
			[]models.SlotRef{req.deliveryRef()}, 1)
	}
	return nil
}

// bookCapacity menjalankan siklus evaluate-then-commit lengkap dengan
// retry. within dijalankan dalam transaksi yang sama dengan commit ledger
// sehingga insert entity dan kenaikan counter atomic sebagai satu unit.
// Kalah race berulang di-degrade menjadi CapacityConflict dengan
// alternatif segar, bukan error generik.
func bookCapacity(store *repository.Store, detector *ConflictDetector, req CapacityRequest, now time.Time, within func(tx *repository.Store) error) error {
	for attempt := 0; attempt <= commitRetries; attempt++ {
		decision, err := detector.Evaluate(req, now)
		if err != nil {
			return err
		}
		if !decision.OK {
			return &models.CapacityConflict{
				Reasons:      decision.Reasons,
				Alternatives: decision.Alternatives,
			}
		}

		err = store.Transaction(func(tx *repository.Store) error {
			if err := commitRequest(tx, req); err != nil {
				return err
			}
			if within != nil {
				return within(tx)
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrConcurrencyConflict) {
			return err
		}
		utils.InfoLogger.Printf("capacity commit lost race for restaurant %d, attempt %d", req.Scope.RestaurantID, attempt+1)
	}

	// retry habis: baca ulang untuk alasan + alternatif terkini
	decision, err := detector.Evaluate(req, now)
	if err != nil {
		return err
	}
	if !decision.OK {
		return &models.CapacityConflict{Reasons: decision.Reasons, Alternatives: decision.Alternatives}
	}
	// evaluasi masih bilang OK padahal commit terus kalah: degrade tetap
	// harus membawa alternatif ter-ranking, dan keputusan OK tidak punya
	// satupun, jadi ranking dipanggil eksplisit
	reason := models.ReasonTableCapacity
	if req.Kind == models.LedgerKindKitchen {
		reason = models.ReasonKitchenLoad
	}
	alts, err := detector.Alternatives(req, now)
	if err != nil {
		return err
	}
	return &models.CapacityConflict{
		Reasons:      []string{reason},
		Alternatives: alts,
	}
}
