package bookings

import (
	"math"
	"time"
)

type BookingResponse struct {
	ID              string     `json:"id"`
	BookingRef      string     `json:"booking_ref"`
	RestaurantID    string     `json:"restaurant_id"`
	RestaurantName  string     `json:"restaurant_name,omitempty"`
	UserID          string     `json:"user_id"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	SlotStart       time.Time  `json:"slot_start"`
	PartySize       int        `json:"party_size"`
	Status          Status     `json:"status"`
	SpecialRequests string     `json:"special_requests,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:              b.ID.String(),
		BookingRef:      b.BookingRef,
		RestaurantID:    b.RestaurantID.String(),
		UserID:          b.UserID.String(),
		Date:            b.Date,
		Time:            b.Time,
		SlotStart:       b.SlotStart,
		PartySize:       b.PartySize,
		Status:          b.Status,
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
		ConfirmedAt:     b.ConfirmedAt,
		CancelledAt:     b.CancelledAt,
		CompletedAt:     b.CompletedAt,
	}
}

type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// SlotDrift is one ledger entry that disagreed with the bookings table.
type SlotDrift struct {
	Slot   string `json:"slot"`
	Ledger int    `json:"ledger"`
	Actual int    `json:"actual"`
}

type ReconcileReport struct {
	Checked  int         `json:"checked"`
	Repaired int         `json:"repaired"`
	Pruned   int         `json:"pruned_dates,omitempty"`
	Drifts   []SlotDrift `json:"drifts"`
}

func (r *ReconcileReport) merge(other *ReconcileReport) {
	r.Checked += other.Checked
	r.Repaired += other.Repaired
	r.Drifts = append(r.Drifts, other.Drifts...)
}

// CalculateTotalPages returns the page count for totalCount items.
func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
