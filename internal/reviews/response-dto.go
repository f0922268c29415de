package reviews

import (
	"math"
	"time"
)

type ReviewResponse struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *Review) ToResponse() ReviewResponse {
	return ReviewResponse{
		ID:           r.ID.String(),
		RestaurantID: r.RestaurantID.String(),
		UserID:       r.UserID.String(),
		UserName:     r.UserName,
		Rating:       r.Rating,
		Comment:      r.Comment,
		CreatedAt:    r.CreatedAt,
	}
}

type PaginatedReviews struct {
	Reviews       []ReviewResponse `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
	TotalCount    int64            `json:"total_count"`
	Page          int              `json:"page"`
	Limit         int              `json:"limit"`
	TotalPages    int              `json:"total_pages"`
}

func calculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
