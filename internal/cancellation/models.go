package cancellation

import (
	"time"

	"tablewise/internal/bookings"

	"github.com/google/uuid"
)

// Cancellation is the audit record written together with a booking release.
type Cancellation struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`
	RestaurantID uuid.UUID `gorm:"type:uuid;index;not null" json:"restaurant_id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	CancelledBy  uuid.UUID `gorm:"type:uuid;not null" json:"cancelled_by"`
	Role         string    `gorm:"type:varchar(30);not null" json:"role"`
	Reason       string    `gorm:"type:varchar(500)" json:"reason,omitempty"`
	PartySize    int       `gorm:"not null" json:"party_size"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName sets the table name for Cancellation
func (Cancellation) TableName() string {
	return "cancellations"
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type ListQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q *ListQuery) normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
}

type CancellationResponse struct {
	Cancellation     Cancellation              `json:"cancellation"`
	Booking          *bookings.BookingResponse `json:"booking,omitempty"`
	AlreadyCancelled bool                      `json:"already_cancelled"`
}

type PaginatedCancellations struct {
	Cancellations []Cancellation `json:"cancellations"`
	TotalCount    int64          `json:"total_count"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
	TotalPages    int            `json:"total_pages"`
}
