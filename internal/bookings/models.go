package bookings

import (
	"time"

	"tablewise/internal/availability"

	"github.com/google/uuid"
)

// Booking is one table reservation for a party at a slot start.
type Booking struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RestaurantID    uuid.UUID  `gorm:"type:uuid;not null;index:idx_bookings_slot,priority:1" json:"restaurant_id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Date            string     `gorm:"type:varchar(10);not null;index:idx_bookings_slot,priority:2" json:"date"`
	Time            string     `gorm:"type:varchar(5);not null;index:idx_bookings_slot,priority:3" json:"time"`
	SlotStart       time.Time  `gorm:"not null;index" json:"slot_start"`
	PartySize       int        `gorm:"not null;check:party_size > 0" json:"party_size"`
	Status          Status     `gorm:"type:varchar(20);not null;default:'PENDING';check:status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'COMPLETED')" json:"status"`
	SpecialRequests string     `gorm:"type:text" json:"special_requests,omitempty"`
	BookingRef      string     `gorm:"size:32;uniqueIndex;not null" json:"booking_ref"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// Key is the ledger entry the booking consumes.
func (b *Booking) Key() availability.SlotKey {
	return availability.SlotKey{RestaurantID: b.RestaurantID, Date: b.Date, Time: b.Time}
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// ListFilter narrows booking listings.
type ListFilter struct {
	UserID        *uuid.UUID
	RestaurantIDs []uuid.UUID
	Status        Status
	Date          string
	DateFrom      string
	DateTo        string
	Page          int
	Limit         int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}
