package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/angelaneason/routie-roo/internal/controllers"
	"github.com/angelaneason/routie-roo/internal/middleware"
)

func WaypointRoutes(r *gin.Engine) {
	waypoints := r.Group("/waypoints")
	waypoints.Use(middleware.RequireAuth())
	{
		waypoints.PUT("/:id", controllers.UpdateWaypoint)
		waypoints.DELETE("/:id", controllers.RemoveWaypoint)
		waypoints.PUT("/:id/status", controllers.UpdateWaypointStatus)
		waypoints.PUT("/:id/reschedule", controllers.RescheduleWaypoint)
		waypoints.GET("/:id/reschedules", controllers.ListReschedules)
	}
}
