package analytics

import (
	"tablewise/internal/shared/identity"
	"tablewise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(rg *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	analytics := rg.Group("/analytics")

	setupAdminAnalyticsRoutes(analytics, controller, auth)
	setupManagerAnalyticsRoutes(analytics, controller, auth)
	setupUserAnalyticsRoutes(analytics, controller, auth)
}

func setupAdminAnalyticsRoutes(rg *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	admin := rg.Group("/admin")
	admin.Use(auth, middleware.RequireAdmin())

	admin.GET("/summary", controller.GetAdminSummary) // Every restaurant (?days=30)
}

func setupManagerAnalyticsRoutes(rg *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	manager := rg.Group("/manager")
	manager.Use(auth, middleware.RequireRoles(identity.RoleManager, identity.RoleAdmin))

	manager.GET("/summary", controller.GetManagerSummary)                    // Own restaurants combined
	manager.GET("/restaurants/:id/summary", controller.GetRestaurantSummary) // One restaurant
}

func setupUserAnalyticsRoutes(rg *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	user := rg.Group("/user")
	user.Use(auth)

	user.GET("/personal", controller.GetPersonalSummary) // Own booking history
}
