package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/angelaneason/routie-roo/internal/controllers"
	"github.com/angelaneason/routie-roo/internal/middleware"
)

func RouteRoutes(r *gin.Engine) {
	routes := r.Group("/routes")
	routes.Use(middleware.RequireAuth())
	{
		routes.POST("", controllers.CreateRoute)
		routes.GET("", controllers.ListRoutes)
		routes.GET("/:id", controllers.GetRoute)
		routes.PUT("/:id", controllers.UpdateRoute)
		routes.POST("/:id/archive", controllers.ArchiveRoute)
		routes.DELETE("/:id", controllers.DeleteRoute)

		routes.POST("/:id/share", controllers.ShareRoute)
		routes.DELETE("/:id/share", controllers.UnshareRoute)

		routes.POST("/:id/waypoints", controllers.AddWaypoint)
		routes.PUT("/:id/reorder", controllers.ReorderWaypoints)
		routes.POST("/:id/recalculate", controllers.RecalculateRoute)
		routes.POST("/:id/reoptimize", controllers.ReoptimizeRoute)
	}
}
