package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Summary is the booking dashboard shown to admins, managers and guests.
type Summary struct {
	PeriodDays           int               `json:"period_days"`
	From                 string            `json:"from"`
	To                   string            `json:"to"`
	TotalBookings        int               `json:"total_bookings"`
	CompletedBookings    int               `json:"completed_bookings"`
	CancelledBookings    int               `json:"cancelled_bookings"`
	PendingBookings      int               `json:"pending_bookings"`
	ConfirmedBookings    int               `json:"confirmed_bookings"`
	AveragePartySize     float64           `json:"average_party_size"`
	CancellationRate     float64           `json:"cancellation_rate"`
	BookingsByDay        []DayCount        `json:"bookings_by_day"`
	BookingsByRestaurant []RestaurantCount `json:"bookings_by_restaurant"`
	TopRestaurants       []RestaurantCount `json:"top_restaurants"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type RestaurantCount struct {
	RestaurantID string `json:"restaurant_id"`
	Name         string `json:"name"`
	Count        int    `json:"count"`
}

// Scope narrows the bookings a summary is computed over. A nil RestaurantIDs means
// every restaurant.
type Scope struct {
	RestaurantIDs []uuid.UUID
	UserID        *uuid.UUID
	Since         time.Time
}

// StatusCount is one row of the per-status aggregate.
type StatusCount struct {
	Status string
	Count  int
	Seats  int
}
