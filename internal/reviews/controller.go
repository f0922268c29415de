package reviews

import (
	"net/http"

	"tablewise/internal/shared/middleware"
	"tablewise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateReview(c *gin.Context)
	GetRestaurantReviews(c *gin.Context)
	DeleteReview(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CreateReview godoc
// @Summary  Review a restaurant after dining there
// @Tags     reviews
// @Accept   json
// @Produce  json
// @Param    id   path string              true "Restaurant ID"
// @Param    body body CreateReviewRequest true "Review"
// @Success  201 {object} response.StandardApiResponse
// @Failure  409 {object} response.StandardApiResponse "Already reviewed"
// @Security BearerAuth
// @Router   /restaurants/{id}/reviews [post]
func (ctrl *controller) CreateReview(c *gin.Context) {
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

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	review, err := ctrl.service.CreateReview(c.Request.Context(), requester, restaurantID, req)
	if err != nil {
		response.RespondError(c, "Failed to create review", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Review created successfully", review, nil)
}

// GetRestaurantReviews handles GET /api/v1/restaurants/:id/reviews
func (ctrl *controller) GetRestaurantReviews(c *gin.Context) {
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

	reviews, err := ctrl.service.ListReviews(c.Request.Context(), restaurantID, query)
	if err != nil {
		response.RespondError(c, "Failed to get reviews", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Reviews retrieved successfully", reviews, nil)
}

// DeleteReview handles DELETE /api/v1/reviews/:id
func (ctrl *controller) DeleteReview(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid review ID", nil, err.Error())
		return
	}

	if err := ctrl.service.DeleteReview(c.Request.Context(), requester, reviewID); err != nil {
		response.RespondError(c, "Failed to delete review", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Review deleted successfully", nil, nil)
}
