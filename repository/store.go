package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/dinehub/scheduling-engine/models"
)

// TenantKey scope wajib untuk semua akses data. Setiap query memfilter
// org dan restaurant sekaligus.
type TenantKey struct {
	OrgID        uint
	RestaurantID uint
}

type LedgerRepositoryInterface interface {
	// CommitUnits menambah used_units untuk setiap slot ref secara
	// conditional (used + units <= max), all-or-nothing dalam satu
	// transaksi. Mengembalikan models.ErrConcurrencyConflict jika ada
	// slot yang gagal guard.
	CommitUnits(scope TenantKey, kind string, refs []models.SlotRef, units, maxUnits int) error
	// ReleaseUnits decrement tanpa syarat, floor di 0.
	ReleaseUnits(scope TenantKey, kind string, refs []models.SlotRef, units int) error
	UsedByDate(scope TenantKey, kind, date string) (map[int]int, error)
}

type ReservationRepositoryInterface interface {
	Create(res *models.Reservation) error
	Get(scope TenantKey, id uint) (*models.Reservation, error)
	GetByCode(scope TenantKey, code string) (*models.Reservation, error)
	Save(res *models.Reservation) error
	// ListOverlapping mengembalikan reservasi non-terminal yang window-nya
	// beririsan dengan [from, to).
	ListOverlapping(scope TenantKey, from, to time.Time) ([]models.Reservation, error)
	ListByRestaurant(scope TenantKey, statuses []string) ([]models.Reservation, error)
}

type OrderRepositoryInterface interface {
	Create(order *models.ScheduledOrder) error
	Get(scope TenantKey, id uint) (*models.ScheduledOrder, error)
	Save(order *models.ScheduledOrder) error
	ReplaceAlternatives(order *models.ScheduledOrder, alts []models.OrderAlternative) error
	ListByRestaurant(scope TenantKey, statuses []string) ([]models.ScheduledOrder, error)
	// ListPastDeadline untuk sweep: order yang deadline-nya sudah lewat.
	ListPastDeadline(now time.Time) ([]models.ScheduledOrder, error)
}

type WaitlistRepositoryInterface interface {
	Create(entry *models.WaitlistEntry) error
	Get(scope TenantKey, id uint) (*models.WaitlistEntry, error)
	Save(entry *models.WaitlistEntry) error
	// FirstActiveOverlapping kandidat promosi: entry active paling awal
	// (FIFO by created_at) yang window preferensinya beririsan.
	FirstActiveOverlapping(scope TenantKey, from, to time.Time, maxParty int) (*models.WaitlistEntry, error)
	ListNotifiedPastDeadline(now time.Time) ([]models.WaitlistEntry, error)
	ListStale(now time.Time) ([]models.WaitlistEntry, error)
	ListByRestaurant(scope TenantKey) ([]models.WaitlistEntry, error)
}

type CatalogRepositoryInterface interface {
	GetRestaurant(orgID, id uint) (*models.Restaurant, error)
	// FindRestaurant untuk surface publik: customer anonim hanya membawa
	// id restoran, scope org diturunkan dari baris restoran itu sendiri.
	FindRestaurant(id uint) (*models.Restaurant, error)
	ListActiveTables(scope TenantKey) ([]models.Table, error)
	GetTable(scope TenantKey, id uint) (*models.Table, error)
}

type IntentRepositoryInterface interface {
	Create(intent *models.NotificationIntent) error
	ListPending(scope TenantKey) ([]models.NotificationIntent, error)
	MarkDispatched(scope TenantKey, id uint) error
}

// Store mengikat semua repository ke satu koneksi (atau transaksi) gorm.
type Store struct {
	db           *gorm.DB
	Ledger       LedgerRepositoryInterface
	Reservations ReservationRepositoryInterface
	Orders       OrderRepositoryInterface
	Waitlist     WaitlistRepositoryInterface
	Catalog      CatalogRepositoryInterface
	Intents      IntentRepositoryInterface
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Ledger:       &ledgerRepository{db: db},
		Reservations: &reservationRepository{db: db},
		Orders:       &orderRepository{db: db},
		Waitlist:     &waitlistRepository{db: db},
		Catalog:      &catalogRepository{db: db},
		Intents:      &intentRepository{db: db},
	}
}

// Transaction menjalankan fn dengan Store yang terikat ke transaksi.
// Error apa pun dari fn membatalkan seluruh transaksi.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB mengekspos koneksi mentah untuk migrasi dan test seeding.
func (s *Store) DB() *gorm.DB {
	return s.db
}
