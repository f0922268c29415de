package bookings

import "strings"

type CreateBookingRequest struct {
	RestaurantID    string `json:"restaurant_id" binding:"required,uuid"`
	Date            string `json:"date" binding:"required,isodate"`
	Time            string `json:"time" binding:"required,clock"`
	PartySize       int    `json:"party_size" binding:"required,min=1,max=100"`
	SpecialRequests string `json:"special_requests" binding:"max=500"`
}

type ListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED COMPLETED"`
	Date     string `form:"date" binding:"omitempty,isodate"`
	DateFrom string `form:"date_from" binding:"omitempty,isodate"`
	DateTo   string `form:"date_to" binding:"omitempty,isodate"`
}

func (q ListQuery) filter() ListFilter {
	f := ListFilter{
		Date:     q.Date,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Page:     q.Page,
		Limit:    q.Limit,
	}
	if status := Status(strings.ToUpper(q.Status)); status.IsValid() {
		f.Status = status
	}
	f.normalize()
	return f
}

type ReconcileRequest struct {
	RestaurantID string `json:"restaurant_id" binding:"omitempty,uuid"`
	Date         string `json:"date" binding:"omitempty,isodate"`
	Days         int    `json:"days" binding:"omitempty,min=1,max=365"`
}
