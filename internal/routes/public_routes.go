package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/angelaneason/routie-roo/internal/controllers"
	"github.com/angelaneason/routie-roo/internal/middleware"
)

// PublicRoutes exposes the share-token-scoped execution surface used by a
// driver holding a share link. No owner identity is required.
func PublicRoutes(r *gin.Engine) {
	public := r.Group("/public/routes/:token")
	public.Use(middleware.RequireShareToken())
	{
		public.GET("", controllers.GetSharedRoute)
		public.PUT("/waypoints/:id/status", controllers.UpdateSharedWaypointStatus)
		public.PUT("/waypoints/:id/reschedule", controllers.RescheduleSharedWaypoint)
	}
}
