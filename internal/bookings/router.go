package bookings

import (
	"tablewise/internal/shared/identity"
	"tablewise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	// Booking routes - any signed-in user
	bookings := router.Group("/bookings")
	bookings.Use(auth)
	{
		bookings.POST("", controller.CreateBooking) // POST /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking) // GET /api/v1/bookings/:id
	}

	users := router.Group("/users")
	users.Use(auth)
	{
		users.GET("/bookings", controller.GetUserBookings) // GET /api/v1/users/bookings
	}

	// Manager routes - bookings of own restaurants
	manager := router.Group("/manager")
	manager.Use(auth, middleware.RequireRoles(identity.RoleManager, identity.RoleAdmin))
	{
		manager.GET("/restaurants/:id/bookings", controller.GetRestaurantBookings) // GET /api/v1/manager/restaurants/:id/bookings
		manager.POST("/bookings/:id/confirm", controller.ConfirmBooking)            // POST /api/v1/manager/bookings/:id/confirm
	}

	admin := router.Group("/admin")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.GET("/bookings", controller.GetAllBookings)          // GET /api/v1/admin/bookings
		admin.POST("/ledger/reconcile", controller.ReconcileLedger) // POST /api/v1/admin/ledger/reconcile
	}
}

// Route definitions for reference:
//
// POST   /api/v1/bookings                              - Reserve a table
// Request body: { "restaurant_id": "...", "date": "2025-06-01", "time": "19:00", "party_size": 4 }
//
// GET    /api/v1/bookings/:id                          - Owner, restaurant manager or admin
// POST   /api/v1/bookings/:id/cancel                   - See the cancellation package
// GET    /api/v1/users/bookings?status=&page=&limit=   - Own bookings
// GET    /api/v1/manager/restaurants/:id/bookings?date= - Restaurant bookings
// POST   /api/v1/manager/bookings/:id/confirm          - PENDING -> CONFIRMED
// GET    /api/v1/admin/bookings                        - All bookings
// POST   /api/v1/admin/ledger/reconcile                - Rebuild drifted ledger entries
