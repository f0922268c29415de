// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tablewise/internal/analytics"
	"tablewise/internal/auth"
	"tablewise/internal/availability"
	"tablewise/internal/bookings"
	"tablewise/internal/cancellation"
	"tablewise/internal/restaurants"
	"tablewise/internal/reviews"
	"tablewise/internal/shared/config"
	"tablewise/internal/shared/database"
	"tablewise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Router holds all route dependencies
type Router struct {
	config       *config.Config
	db           *database.DB
	services     *Services
	auth         gin.HandlerFunc
	optionalAuth gin.HandlerFunc
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, services *Services) *Router {
	return &Router{
		config:       cfg,
		db:           db,
		services:     services,
		auth:         middleware.JWTAuthWithConfig(cfg),
		optionalAuth: middleware.OptionalAuthWithConfig(cfg),
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		auth.NewRouter(auth.NewController(r.services.Auth), r.auth).SetupRoutes(api)

		restaurants.SetupRestaurantRoutes(api, restaurants.NewController(r.services.Restaurants), r.auth, r.optionalAuth)
		availability.SetupAvailabilityRoutes(api, availability.NewController(r.services.Availability))
		bookings.SetupBookingRoutes(api, bookings.NewController(r.services.Bookings), r.auth)
		cancellation.SetupCancellationRoutes(api, cancellation.NewController(r.services.Cancellation), r.auth)
		reviews.SetupReviewRoutes(api, reviews.NewController(r.services.Reviews), r.auth)
		analytics.SetupAnalyticsRoutes(api, analytics.NewController(r.services.Analytics), r.auth)

		api.GET("/admin/jobs", r.auth, middleware.RequireAdmin(), func(c *gin.Context) {
			c.JSON(http.StatusOK, r.services.Jobs.GetJobStatus())
		})
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		health := r.db.Health(c.Request.Context())
		status := "healthy"
		code := http.StatusOK
		if !health.Healthy {
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now(),
			"service":   "tablewise-api",
			"postgres":  health.Postgres,
			"redis":     health.Redis,
			"ledger":    health.Ledger,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
