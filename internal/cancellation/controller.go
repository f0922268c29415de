package cancellation

import (
	"net/http"

	"tablewise/internal/shared/middleware"
	"tablewise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CancelBooking(c *gin.Context)
	GetBookingCancellation(c *gin.Context)
	GetUserCancellations(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CancelBooking godoc
// @Summary  Cancel a reservation and release its seats
// @Tags     cancellations
// @Accept   json
// @Produce  json
// @Param    id   path string        true  "Booking ID"
// @Param    body body CancelRequest false "Optional reason"
// @Success  200 {object} response.StandardApiResponse
// @Failure  403 {object} response.StandardApiResponse
// @Failure  409 {object} response.StandardApiResponse "Reservation already started"
// @Security BearerAuth
// @Router   /bookings/{id}/cancel [post]
func (ctrl *controller) CancelBooking(c *gin.Context) {
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

	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	result, err := ctrl.service.Cancel(c.Request.Context(), bookingID, requester, req.Reason)
	if err != nil {
		response.RespondError(c, "Failed to cancel booking", err)
		return
	}

	message := "Booking cancelled successfully"
	if result.AlreadyCancelled {
		message = "Booking was already cancelled"
	}
	response.RespondJSON(c, "success", http.StatusOK, message, result, nil)
}

// GetBookingCancellation handles GET /api/v1/bookings/:id/cancellation
func (ctrl *controller) GetBookingCancellation(c *gin.Context) {
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

	record, err := ctrl.service.GetByBooking(c.Request.Context(), requester, bookingID)
	if err != nil {
		response.RespondError(c, "Failed to get cancellation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Cancellation retrieved successfully", record, nil)
}

// GetUserCancellations handles GET /api/v1/users/cancellations
func (ctrl *controller) GetUserCancellations(c *gin.Context) {
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

	items, err := ctrl.service.ListByUser(c.Request.Context(), requester, query)
	if err != nil {
		response.RespondError(c, "Failed to get cancellations", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Cancellations retrieved successfully", items, nil)
}
