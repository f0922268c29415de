package bookings

import (
	"net/http"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/middleware"
	"tablewise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateBooking(c *gin.Context)
	GetBooking(c *gin.Context)
	GetUserBookings(c *gin.Context)
	GetRestaurantBookings(c *gin.Context)
	ConfirmBooking(c *gin.Context)
	GetAllBookings(c *gin.Context)
	ReconcileLedger(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CreateBooking godoc
// @Summary  Reserve a table
// @Tags     bookings
// @Accept   json
// @Produce  json
// @Param    body body CreateBookingRequest true "Reservation"
// @Success  201 {object} response.StandardApiResponse
// @Failure  409 {object} response.StandardApiResponse "Slot is full"
// @Failure  422 {object} response.StandardApiResponse "Closed or invalid date"
// @Security BearerAuth
// @Router   /bookings [post]
func (ctrl *controller) CreateBooking(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.CreateBooking(c.Request.Context(), requester, req)
	if err != nil {
		response.RespondError(c, "Failed to create booking", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (ctrl *controller) GetBooking(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), requester, bookingID)
	if err != nil {
		response.RespondError(c, "Failed to get booking", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// GetUserBookings handles GET /api/v1/users/bookings
func (ctrl *controller) GetUserBookings(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	bookings, err := ctrl.service.ListUserBookings(c.Request.Context(), requester, query)
	if err != nil {
		response.RespondError(c, "Failed to get user bookings", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookings, nil)
}

func (ctrl *controller) GetRestaurantBookings(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	restaurantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid restaurant ID", nil, err.Error())
		return
	}

	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	bookings, err := ctrl.service.ListRestaurantBookings(c.Request.Context(), requester, restaurantID, query)
	if err != nil {
		response.RespondError(c, "Failed to get restaurant bookings", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookings, nil)
}

func (ctrl *controller) ConfirmBooking(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.ConfirmBooking(c.Request.Context(), requester, bookingID)
	if err != nil {
		response.RespondError(c, "Failed to confirm booking", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking confirmed successfully", booking, nil)
}

func (ctrl *controller) GetAllBookings(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	bookings, err := ctrl.service.ListAllBookings(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, "Failed to get bookings", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", bookings, nil)
}

// ReconcileLedger rebuilds drifted ledger entries for one restaurant date, or for every
// upcoming date when no restaurant is given.
func (ctrl *controller) ReconcileLedger(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	var (
		report *ReconcileReport
		err    error
	)
	switch {
	case req.RestaurantID != "" && req.Date != "":
		report, err = ctrl.service.Reconcile(c.Request.Context(), uuid.MustParse(req.RestaurantID), req.Date)
	case req.RestaurantID != "" || req.Date != "":
		err = apperrors.Invalid("restaurant_id and date must be given together")
	default:
		days := req.Days
		if days == 0 {
			days = 7
		}
		report, err = ctrl.service.ReconcileUpcoming(c.Request.Context(), days)
	}
	if err != nil {
		response.RespondError(c, "Failed to reconcile ledger", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Ledger reconciled", report, nil)
}
