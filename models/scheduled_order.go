package models

import "time"

// Status scheduled order
const (
	OrderStatusPendingApproval = "pending_restaurant_approval"
	OrderStatusConfirmed       = "confirmed"
	OrderStatusAltProposed     = "alternatives_proposed"
	OrderStatusDeclined        = "declined"
)

// Jenis fulfillment
const (
	FulfillmentPickup   = "pickup"
	FulfillmentDelivery = "delivery"
)

// ScheduledOrder adalah order dengan waktu fulfillment di masa depan.
// Isi order (line items) opaque bagi engine: hanya total dan estimasi
// durasi persiapan yang dipakai.
type ScheduledOrder struct {
	ID               uint               `gorm:"primaryKey" json:"id"`
	OrgID            uint               `gorm:"not null;index" json:"org_id"`
	RestaurantID     uint               `gorm:"not null;index" json:"restaurant_id"`
	CustomerName     string             `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerPhone    string             `gorm:"type:varchar(30)" json:"customer_phone"`
	CustomerEmail    string             `gorm:"type:varchar(100)" json:"customer_email"`
	Fulfillment      string             `gorm:"type:varchar(20);not null;default:'pickup'" json:"fulfillment"`
	RequestedAt      time.Time          `gorm:"not null;index" json:"requested_at"`
	ConfirmedAt      *time.Time         `json:"confirmed_at,omitempty"`
	EstimatedPrepMin int                `gorm:"not null" json:"estimated_prep_min"`
	OrderTotal       float64            `gorm:"type:decimal(10,2);not null;default:0.00" json:"order_total"`
	CompensationPct  int                `gorm:"not null;default:0" json:"compensation_pct"`
	Status           string             `gorm:"type:varchar(40);not null;default:'pending_restaurant_approval'" json:"status"`
	HadConflict      bool               `gorm:"not null;default:false" json:"had_conflict"`
	ApprovalDeadline time.Time          `gorm:"not null" json:"approval_deadline"`
	CustomerDeadline *time.Time         `json:"customer_deadline,omitempty"`
	Alternatives     []OrderAlternative `gorm:"foreignKey:OrderID" json:"alternatives,omitempty"`
	CreatedAt        time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time          `gorm:"not null" json:"updated_at"`
}

// PrepWindow window okupansi dapur: persiapan berakhir di waktu fulfillment.
func (o *ScheduledOrder) PrepWindow(at time.Time) (time.Time, time.Time) {
	return at.Add(-time.Duration(o.EstimatedPrepMin) * time.Minute), at
}

// OrderAlternative adalah satu slot alternatif yang ditawarkan ke customer.
type OrderAlternative struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrderID         uint      `gorm:"not null;index" json:"order_id"`
	ProposedAt      time.Time `gorm:"not null" json:"proposed_at"`
	CompensationPct int       `gorm:"not null;default:0" json:"compensation_pct"`
	Note            string    `gorm:"type:varchar(255)" json:"note"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
}

var orderTransitions = map[string][]string{
	OrderStatusPendingApproval: {OrderStatusConfirmed, OrderStatusAltProposed, OrderStatusDeclined},
	OrderStatusAltProposed:     {OrderStatusConfirmed, OrderStatusDeclined},
}

func OrderCanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
