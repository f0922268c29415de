package restaurants

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSlotMinutes is used when a restaurant has no slot length of its own.
const DefaultSlotMinutes = 30

type Address struct {
	Street    string  `json:"street" gorm:"size:255"`
	City      string  `json:"city" gorm:"size:120;index"`
	State     string  `json:"state" gorm:"size:120"`
	ZipCode   string  `json:"zip_code" gorm:"size:20"`
	Country   string  `json:"country" gorm:"size:120"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Restaurant struct {
	ID          uuid.UUID   `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string      `json:"name" gorm:"not null;size:255"`
	Description string      `json:"description" gorm:"type:text"`
	Cuisine     string      `json:"cuisine" gorm:"size:100;index"`
	PriceRange  int         `json:"price_range" gorm:"not null;default:2;check:price_range BETWEEN 1 AND 4"`
	Address     Address     `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Phone       string      `json:"phone" gorm:"size:50"`
	Email       string      `json:"email" gorm:"size:255"`
	Website     string      `json:"website" gorm:"size:500"`
	Hours       WeeklyHours `json:"hours" gorm:"serializer:json;type:jsonb;not null"`
	Capacity    int         `json:"capacity" gorm:"not null;check:capacity > 0"`
	SlotMinutes int         `json:"slot_minutes" gorm:"not null;default:30;check:slot_minutes > 0"`
	Timezone    string      `json:"timezone" gorm:"size:64;not null;default:'UTC'"`
	Images      []string    `json:"images" gorm:"serializer:json;type:jsonb"`
	Rating      float64     `json:"rating" gorm:"not null;default:0"`
	ReviewCount int         `json:"review_count" gorm:"not null;default:0"`
	IsApproved  bool        `json:"is_approved" gorm:"not null;default:false;index"`
	ManagerID   uuid.UUID   `json:"manager_id" gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Restaurant) TableName() string {
	return "restaurants"
}

// Location returns the restaurant's time zone, falling back to UTC.
func (r *Restaurant) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Granularity is the spacing between bookable slot starts.
func (r *Restaurant) Granularity() time.Duration {
	if r.SlotMinutes <= 0 {
		return DefaultSlotMinutes * time.Minute
	}
	return time.Duration(r.SlotMinutes) * time.Minute
}

// ManagedBy reports whether userID manages this restaurant.
func (r *Restaurant) ManagedBy(userID uuid.UUID) bool {
	return r.ManagerID != uuid.Nil && r.ManagerID == userID
}

// ListFilter narrows restaurant listings.
type ListFilter struct {
	Cuisine      string
	City         string
	Search       string
	MinRating    float64
	MaxPrice     int
	OnlyApproved bool
	OnlyPending  bool
	ManagerID    *uuid.UUID
	Page         int
	Limit        int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}
