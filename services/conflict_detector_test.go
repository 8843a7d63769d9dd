package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinehub/scheduling-engine/models"
)

func diningRequest(e *testEngine, anchorHour, anchorMin, durationMin, units int) CapacityRequest {
	return CapacityRequest{
		Scope:       e.scope,
		Restaurant:  e.rest,
		Kind:        models.LedgerKindDining,
		Anchor:      at(anchorHour, anchorMin),
		DurationMin: durationMin,
		Units:       units,
	}
}

func TestEvaluateAcceptsOpenSlot(t *testing.T) {
	e := newTestEngine(t, "file:detect_open?mode=memory&cache=shared")

	decision, err := e.detector.Evaluate(diningRequest(e, 18, 0, 60, 4), testNow)
	require.NoError(t, err)
	assert.True(t, decision.OK)
	assert.Empty(t, decision.Reasons)
}

func TestEvaluateRejectsFullSlotWithRankedAlternatives(t *testing.T) {
	e := newTestEngine(t, "file:detect_full?mode=memory&cache=shared")
	e.fillSlot(t, models.LedgerKindDining, 1080, 10) // 18:00 penuh

	decision, err := e.detector.Evaluate(diningRequest(e, 18, 0, 30, 2), testNow)
	require.NoError(t, err)
	require.False(t, decision.OK)
	assert.Contains(t, decision.Reasons, models.ReasonTableCapacity)

	require.NotEmpty(t, decision.Alternatives)
	assert.LessOrEqual(t, len(decision.Alternatives), 3)
	// jarak sama (30 menit) dipecah dengan waktu lebih awal
	assert.True(t, decision.Alternatives[0].StartsAt.Equal(at(17, 30)))
	for _, alt := range decision.Alternatives {
		assert.False(t, alt.StartsAt.Equal(at(18, 0)), "slot yang penuh tidak boleh diusulkan")
		assert.GreaterOrEqual(t, alt.RemainingUnits, 2)
		assert.Equal(t, 10, alt.CompensationPct)
	}
}

func TestEvaluateMultiSlotWindowNeedsAllSlots(t *testing.T) {
	e := newTestEngine(t, "file:detect_window?mode=memory&cache=shared")
	e.fillSlot(t, models.LedgerKindDining, 1110, 10) // hanya 18:30 penuh

	// window 18:00-19:00 mencakup slot penuh di tengahnya
	decision, err := e.detector.Evaluate(diningRequest(e, 18, 0, 60, 2), testNow)
	require.NoError(t, err)
	assert.False(t, decision.OK)
}

func TestEvaluateOffGridCountsAsZero(t *testing.T) {
	e := newTestEngine(t, "file:detect_offgrid?mode=memory&cache=shared")

	// 23:00 di luar operating hours
	decision, err := e.detector.Evaluate(diningRequest(e, 23, 0, 30, 2), testNow)
	require.NoError(t, err)
	assert.False(t, decision.OK)
	assert.Contains(t, decision.Reasons, models.ReasonTableCapacity)
}

func TestEvaluateDeliveryCapacity(t *testing.T) {
	e := newTestEngine(t, "file:detect_delivery?mode=memory&cache=shared")
	e.fillSlot(t, models.LedgerKindDelivery, 1080, 1) // kurir 18:00 habis

	req := CapacityRequest{
		Scope:       e.scope,
		Restaurant:  e.rest,
		Kind:        models.LedgerKindKitchen,
		Anchor:      at(18, 0),
		LeadMin:     30,
		DurationMin: 30,
		Units:       1,
		Delivery:    true,
	}
	decision, err := e.detector.Evaluate(req, testNow)
	require.NoError(t, err)
	require.False(t, decision.OK)
	assert.Contains(t, decision.Reasons, models.ReasonDeliveryCapacity)
	assert.NotContains(t, decision.Reasons, models.ReasonKitchenLoad)
}

// Granularitas nol di settings tidak boleh membuat Refs kosong lalu panic
// saat request delivery membaca slot anchor; normalisasi jatuh ke 30 menit.
func TestEvaluateToleratesZeroGranularity(t *testing.T) {
	e := newTestEngine(t, "file:detect_zerogran?mode=memory&cache=shared")
	e.rest.Settings.SlotGranularityMin = 0

	req := CapacityRequest{
		Scope:       e.scope,
		Restaurant:  e.rest,
		Kind:        models.LedgerKindKitchen,
		Anchor:      at(18, 0),
		LeadMin:     30,
		DurationMin: 30,
		Units:       1,
		Delivery:    true,
	}
	decision, err := e.detector.Evaluate(req, testNow)
	require.NoError(t, err)
	assert.True(t, decision.OK)
}
