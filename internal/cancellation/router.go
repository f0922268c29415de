package cancellation

import (
	"github.com/gin-gonic/gin"
)

func SetupCancellationRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	// Owner, restaurant manager or admin; the service checks which
	bookings := router.Group("/bookings")
	bookings.Use(auth)
	{
		bookings.POST("/:id/cancel", controller.CancelBooking)               // POST /api/v1/bookings/:id/cancel
		bookings.GET("/:id/cancellation", controller.GetBookingCancellation) // GET /api/v1/bookings/:id/cancellation
	}

	users := router.Group("/users")
	users.Use(auth)
	{
		users.GET("/cancellations", controller.GetUserCancellations) // GET /api/v1/users/cancellations
	}
}
