package availability

type AvailabilityQuery struct {
	Date      string `form:"date" binding:"required,isodate"`
	PartySize int    `form:"party_size" binding:"required,min=1,max=100"`
}

type SearchQuery struct {
	Date      string `form:"date" binding:"required,isodate"`
	Time      string `form:"time" binding:"omitempty,clock"`
	PartySize int    `form:"party_size" binding:"required,min=1,max=100"`
	Cuisine   string `form:"cuisine"`
	City      string `form:"city"`
	Search    string `form:"q"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

func (q SearchQuery) limit() int {
	if q.Limit <= 0 {
		return 20
	}
	return q.Limit
}

type AvailabilityResponse struct {
	RestaurantID string     `json:"restaurant_id"`
	Date         string     `json:"date"`
	PartySize    int        `json:"party_size"`
	Slots        []TimeSlot `json:"slots"`
}

// SearchResult is a restaurant that can seat the party on the requested date.
// Slot is set when the exact requested time is available, Alternatives otherwise.
type SearchResult struct {
	RestaurantID string     `json:"restaurant_id"`
	Name         string     `json:"name"`
	Cuisine      string     `json:"cuisine"`
	City         string     `json:"city"`
	PriceRange   int        `json:"price_range"`
	Rating       float64    `json:"rating"`
	Slot         *TimeSlot  `json:"slot,omitempty"`
	Alternatives []TimeSlot `json:"alternatives,omitempty"`
}
