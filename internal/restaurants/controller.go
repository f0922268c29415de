package restaurants

import (
	"net/http"
	"strconv"

	"tablewise/internal/shared/middleware"
	"tablewise/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller interface {
	CreateRestaurant(c *gin.Context)
	UpdateRestaurant(c *gin.Context)
	GetRestaurant(c *gin.Context)
	ListRestaurants(c *gin.Context)
	ListManagedRestaurants(c *gin.Context)
	ListPendingRestaurants(c *gin.Context)
	SetApproval(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

// CreateRestaurant godoc
// @Summary  Create a restaurant
// @Tags     restaurants
// @Accept   json
// @Produce  json
// @Param    body body CreateRestaurantRequest true "Restaurant"
// @Success  201 {object} response.StandardApiResponse
// @Router   /manager/restaurants [post]
func (ctrl *controller) CreateRestaurant(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	restaurant, err := ctrl.service.CreateRestaurant(c.Request.Context(), requester, req)
	if err != nil {
		response.RespondError(c, "Failed to create restaurant", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Restaurant created successfully", restaurant, nil)
}

func (ctrl *controller) UpdateRestaurant(c *gin.Context) {
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

	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	restaurant, err := ctrl.service.UpdateRestaurant(c.Request.Context(), requester, restaurantID, req)
	if err != nil {
		response.RespondError(c, "Failed to update restaurant", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Restaurant updated successfully", restaurant, nil)
}

// GetRestaurant godoc
// @Summary  Get restaurant details
// @Tags     restaurants
// @Produce  json
// @Param    id path string true "Restaurant ID"
// @Success  200 {object} response.StandardApiResponse
// @Failure  404 {object} response.StandardApiResponse
// @Router   /restaurants/{id} [get]
func (ctrl *controller) GetRestaurant(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid restaurant ID", nil, err.Error())
		return
	}

	restaurant, err := ctrl.service.GetRestaurant(c.Request.Context(), middleware.OptionalUser(c), restaurantID)
	if err != nil {
		response.RespondError(c, "Failed to retrieve restaurant", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Restaurant retrieved successfully", restaurant, nil)
}

// ListRestaurants godoc
// @Summary  Browse approved restaurants
// @Tags     restaurants
// @Produce  json
// @Param    cuisine query string false "Cuisine"
// @Param    city    query string false "City"
// @Param    q       query string false "Free text"
// @Success  200 {object} response.StandardApiResponse
// @Router   /restaurants [get]
func (ctrl *controller) ListRestaurants(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := ctrl.service.ListRestaurants(c.Request.Context(), query)
	if err != nil {
		response.RespondError(c, "Failed to list restaurants", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Restaurants retrieved successfully", result, nil)
}

func (ctrl *controller) ListManagedRestaurants(c *gin.Context) {
	requester, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	result, err := ctrl.service.ListManagedRestaurants(c.Request.Context(), requester)
	if err != nil {
		response.RespondError(c, "Failed to list restaurants", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Restaurants retrieved successfully", result, nil)
}

func (ctrl *controller) ListPendingRestaurants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := ctrl.service.ListPending(c.Request.Context(), page, limit)
	if err != nil {
		response.RespondError(c, "Failed to list pending restaurants", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Pending restaurants retrieved successfully", result, nil)
}

func (ctrl *controller) SetApproval(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid restaurant ID", nil, err.Error())
		return
	}

	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	restaurant, err := ctrl.service.SetApproval(c.Request.Context(), restaurantID, *req.Approved)
	if err != nil {
		response.RespondError(c, "Failed to update approval", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Restaurant approval updated", restaurant, nil)
}
