package services

import (
	"time"

	"github.com/dinehub/scheduling-engine/utils"
)

// SweepMonitor adalah penyapu periodik untuk deadline yang lewat tanpa
// pernah disentuh request: resolusi order yang kadaluwarsa dan rotasi
// antrean waitlist. Semua deadline juga dievaluasi lazy saat entity
// disentuh; sweep ini hanya mencegah state diam membusuk tanpa batas.
type SweepMonitor struct {
	Orders   *OrderService
	Waitlist *WaitlistService
	StopChan chan struct{}
	Interval time.Duration
}

func NewSweepMonitor(orders *OrderService, waitlist *WaitlistService) *SweepMonitor {
	return &SweepMonitor{
		Orders:   orders,
		Waitlist: waitlist,
		StopChan: make(chan struct{}),
		Interval: 30 * time.Second,
	}
}

func (sm *SweepMonitor) Start() {
	go func() {
		ticker := time.NewTicker(sm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.Sweep(time.Now())
			case <-sm.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Printf("sweep monitor started (interval %s)", sm.Interval)
}

func (sm *SweepMonitor) Stop() {
	close(sm.StopChan)
}

// Sweep satu putaran; dipisah supaya bisa dipanggil langsung dari test.
func (sm *SweepMonitor) Sweep(now time.Time) {
	sm.Orders.ResolveExpired(now)
	sm.Waitlist.ExpireStale(now)
}
