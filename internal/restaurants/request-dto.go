package restaurants

type AddressRequest struct {
	Street    string  `json:"street" binding:"max=255"`
	City      string  `json:"city" binding:"required,max=120"`
	State     string  `json:"state" binding:"max=120"`
	ZipCode   string  `json:"zip_code" binding:"max=20"`
	Country   string  `json:"country" binding:"max=120"`
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

func (a AddressRequest) toModel() Address {
	return Address(a)
}

type CreateRestaurantRequest struct {
	Name        string         `json:"name" binding:"required,min=2,max=255"`
	Description string         `json:"description" binding:"max=2000"`
	Cuisine     string         `json:"cuisine" binding:"required,max=100"`
	PriceRange  int            `json:"price_range" binding:"required,min=1,max=4"`
	Address     AddressRequest `json:"address" binding:"required"`
	Phone       string         `json:"phone" binding:"max=50"`
	Email       string         `json:"email" binding:"omitempty,email"`
	Website     string         `json:"website" binding:"omitempty,url"`
	Hours       WeeklyHours    `json:"hours" binding:"required,min=1,dive,keys,weekday,endkeys"`
	Capacity    int            `json:"capacity" binding:"required,min=1,max=10000"`
	SlotMinutes int            `json:"slot_minutes" binding:"omitempty,min=5,max=240"`
	Timezone    string         `json:"timezone" binding:"omitempty,timezone"`
	Images      []string       `json:"images" binding:"omitempty,max=20,dive,url"`
	// Admins may create a restaurant on behalf of a manager.
	ManagerID string `json:"manager_id" binding:"omitempty,uuid"`
}

type UpdateRestaurantRequest struct {
	Name        *string         `json:"name" binding:"omitempty,min=2,max=255"`
	Description *string         `json:"description" binding:"omitempty,max=2000"`
	Cuisine     *string         `json:"cuisine" binding:"omitempty,max=100"`
	PriceRange  *int            `json:"price_range" binding:"omitempty,min=1,max=4"`
	Address     *AddressRequest `json:"address"`
	Phone       *string         `json:"phone" binding:"omitempty,max=50"`
	Email       *string         `json:"email" binding:"omitempty,email"`
	Website     *string         `json:"website" binding:"omitempty,url"`
	Hours       WeeklyHours     `json:"hours" binding:"omitempty,min=1,dive,keys,weekday,endkeys"`
	Capacity    *int            `json:"capacity" binding:"omitempty,min=1,max=10000"`
	SlotMinutes *int            `json:"slot_minutes" binding:"omitempty,min=5,max=240"`
	Timezone    *string         `json:"timezone" binding:"omitempty,timezone"`
	Images      []string        `json:"images" binding:"omitempty,max=20,dive,url"`
}

type ListQuery struct {
	Page      int     `form:"page" binding:"omitempty,min=1"`
	Limit     int     `form:"limit" binding:"omitempty,min=1,max=100"`
	Cuisine   string  `form:"cuisine"`
	City      string  `form:"city"`
	Search    string  `form:"q"`
	MinRating float64 `form:"min_rating" binding:"omitempty,min=0,max=5"`
	MaxPrice  int     `form:"max_price" binding:"omitempty,min=1,max=4"`
}

type ApprovalRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}
