package reviews

import "github.com/gin-gonic/gin"

func SetupReviewRoutes(router *gin.RouterGroup, controller Controller, auth gin.HandlerFunc) {
	router.GET("/restaurants/:id/reviews", controller.GetRestaurantReviews) // GET /api/v1/restaurants/:id/reviews

	protected := router.Group("")
	protected.Use(auth)
	{
		protected.POST("/restaurants/:id/reviews", controller.CreateReview) // POST /api/v1/restaurants/:id/reviews
		protected.DELETE("/reviews/:id", controller.DeleteReview)           // DELETE /api/v1/reviews/:id
	}
}
