package restaurants

import "time"

type RestaurantResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Cuisine     string      `json:"cuisine"`
	PriceRange  int         `json:"price_range"`
	Address     Address     `json:"address"`
	Phone       string      `json:"phone,omitempty"`
	Email       string      `json:"email,omitempty"`
	Website     string      `json:"website,omitempty"`
	Hours       WeeklyHours `json:"hours"`
	Capacity    int         `json:"capacity"`
	SlotMinutes int         `json:"slot_minutes"`
	Timezone    string      `json:"timezone"`
	Images      []string    `json:"images"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	IsApproved  bool        `json:"is_approved"`
	ManagerID   string      `json:"manager_id"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type PaginatedRestaurants struct {
	Restaurants []RestaurantResponse `json:"restaurants"`
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
}

func (r *Restaurant) ToResponse() RestaurantResponse {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return RestaurantResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		Cuisine:     r.Cuisine,
		PriceRange:  r.PriceRange,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		Website:     r.Website,
		Hours:       r.Hours,
		Capacity:    r.Capacity,
		SlotMinutes: r.SlotMinutes,
		Timezone:    r.Timezone,
		Images:      images,
		Rating:      r.Rating,
		ReviewCount: r.ReviewCount,
		IsApproved:  r.IsApproved,
		ManagerID:   r.ManagerID.String(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
