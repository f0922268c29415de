package reviews

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	RestaurantID uuid.UUID `json:"restaurant_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_restaurant_user,priority:1"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_restaurant_user,priority:2"`
	UserName     string    `json:"user_name" gorm:"type:varchar(200)"`
	Rating       int       `json:"rating" gorm:"not null;check:rating BETWEEN 1 AND 5"`
	Comment      string    `json:"comment" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

// RatingStats is the aggregate stored on the restaurant after every change.
type RatingStats struct {
	Average float64
	Count   int
}
