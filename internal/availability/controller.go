package availability

import (
	"net/http"

	"tablewise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	GetAvailability(c *gin.Context)
	Search(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// GetAvailability godoc
// @Summary  List bookable slots of a restaurant for a date and party size
// @Tags     availability
// @Produce  json
// @Param    id         path  string true "Restaurant ID"
// @Param    date       query string true "Business date (YYYY-MM-DD)"
// @Param    party_size query int    true "Party size"
// @Success  200 {object} response.StandardApiResponse
// @Failure  422 {object} response.StandardApiResponse
// @Router   /restaurants/{id}/availability [get]
func (ctrl *controller) GetAvailability(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid restaurant ID", nil, err.Error())
		return
	}

	var query AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	slots, err := ctrl.service.GetAvailableSlots(c.Request.Context(), restaurantID, query.Date, query.PartySize)
	if err != nil {
		response.RespondError(c, "Failed to compute availability", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Availability retrieved successfully", AvailabilityResponse{
		RestaurantID: restaurantID.String(),
		Date:         query.Date,
		PartySize:    query.PartySize,
		Slots:        slots,
	}, nil)
}

func (ctrl *controller) Search(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	results, err := ctrl.service.Search(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, "Failed to search availability", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Search completed successfully", results, nil)
}
