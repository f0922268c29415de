package analytics

import (
	"net/http"
	"strconv"

	"tablewise/internal/shared/middleware"
	"tablewise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Controller defines the analytics controller interface
type Controller interface {
	GetAdminSummary(c *gin.Context)
	GetManagerSummary(c *gin.Context)
	GetRestaurantSummary(c *gin.Context)
	GetPersonalSummary(c *gin.Context)
}

type controller struct {
	service Service
}

// NewController creates a new analytics controller instance
func NewController(service Service) Controller {
	return &controller{service: service}
}

// parseDays reads ?days=N; an absent or malformed value falls back to the default period.
func parseDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", "0"))
	if err != nil {
		return 0
	}
	return days
}

// GetAdminSummary godoc
// @Summary  Booking summary across every restaurant
// @Tags     analytics
// @Produce  json
// @Param    days query int false "Period in days (default 30)"
// @Success  200 {object} response.StandardApiResponse
// @Security BearerAuth
// @Router   /analytics/admin/summary [get]
func (ctrl *controller) GetAdminSummary(c *gin.Context) {
	summary, err := ctrl.service.GetAdminSummary(c.Request.Context(), parseDays(c))
	if err != nil {
		response.RespondError(c, "Failed to retrieve analytics", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Analytics retrieved successfully", summary, nil)
}

// GetManagerSummary handles GET /api/v1/analytics/manager/summary
func (ctrl *controller) GetManagerSummary(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	summary, err := ctrl.service.GetManagerSummary(c.Request.Context(), requester, parseDays(c))
	if err != nil {
		response.RespondError(c, "Failed to retrieve analytics", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Analytics retrieved successfully", summary, nil)
}

// GetRestaurantSummary handles GET /api/v1/analytics/manager/restaurants/:id/summary
func (ctrl *controller) GetRestaurantSummary(c *gin.Context) {
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

	summary, err := ctrl.service.GetRestaurantSummary(c.Request.Context(), requester, restaurantID, parseDays(c))
	if err != nil {
		response.RespondError(c, "Failed to retrieve analytics", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Analytics retrieved successfully", summary, nil)
}

// GetPersonalSummary handles GET /api/v1/analytics/user/personal
func (ctrl *controller) GetPersonalSummary(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	summary, err := ctrl.service.GetPersonalSummary(c.Request.Context(), requester, parseDays(c))
	if err != nil {
		response.RespondError(c, "Failed to retrieve analytics", err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Analytics retrieved successfully", summary, nil)
}
