package availability

import "github.com/gin-gonic/gin"

func SetupAvailabilityRoutes(router *gin.RouterGroup, controller Controller) {
	router.GET("/restaurants/:id/availability", controller.GetAvailability) // GET /api/v1/restaurants/:id/availability
	router.GET("/search", controller.Search)                                // GET /api/v1/search
}
