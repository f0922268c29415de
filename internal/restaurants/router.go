package restaurants

import (
	"tablewise/internal/shared/identity"
	"tablewise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRestaurantRoutes registers restaurant routes. auth and optionalAuth are the JWT middlewares.
func SetupRestaurantRoutes(router *gin.RouterGroup, controller Controller, auth, optionalAuth gin.HandlerFunc) {
	// Public routes - browsing
	public := router.Group("/restaurants")
	public.Use(optionalAuth)
	{
		public.GET("", controller.ListRestaurants)   // GET /api/v1/restaurants
		public.GET("/:id", controller.GetRestaurant) // GET /api/v1/restaurants/:id
	}

	// Manager routes - own restaurants
	manager := router.Group("/manager/restaurants")
	manager.Use(auth, middleware.RequireRoles(identity.RoleManager, identity.RoleAdmin))
	{
		manager.GET("", controller.ListManagedRestaurants) // GET /api/v1/manager/restaurants
		manager.POST("", controller.CreateRestaurant)      // POST /api/v1/manager/restaurants
		manager.PUT("/:id", controller.UpdateRestaurant)   // PUT /api/v1/manager/restaurants/:id
	}

	// Admin routes - approval workflow
	admin := router.Group("/admin/restaurants")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.GET("/pending", controller.ListPendingRestaurants) // GET /api/v1/admin/restaurants/pending
		admin.PATCH("/:id/approval", controller.SetApproval)     // PATCH /api/v1/admin/restaurants/:id/approval
	}
}
