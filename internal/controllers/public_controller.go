package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/angelaneason/routie-roo/internal/config"
	"github.com/angelaneason/routie-roo/internal/models"
)

// sharedRoute pulls the route resolved by the share-token middleware.
func sharedRoute(c *gin.Context) models.Route {
	return c.MustGet("shared_route").(models.Route)
}

// sharedWaypoint loads a waypoint scoped to the shared route. A waypoint
// outside the shared route is indistinguishable from a missing one.
func sharedWaypoint(c *gin.Context, route models.Route) (models.Waypoint, bool) {
	wpID, ok := parseID(c, "id")
	if !ok {
		return models.Waypoint{}, false
	}

	var wp models.Waypoint
	err := config.DB.Where("id = ? AND route_id = ?", wpID, route.ID).First(&wp).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Waypoint not found"})
		return models.Waypoint{}, false
	}
	return wp, true
}

// GetSharedRoute returns the shared route and its waypoints for a driver
// holding the link. The owner identity and share token stay hidden.
func GetSharedRoute(c *gin.Context) {
	route := sharedRoute(c)

	config.DB.Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
		return db.Order("waypoints.position asc")
	}).First(&route, route.ID)

	resp := toRouteResponse(route)
	resp.ShareToken = nil
	c.JSON(http.StatusOK, gin.H{"route": resp})
}

// UpdateSharedWaypointStatus is the share-token variant of the status
// transition, authorized by the link instead of an owner identity.
func UpdateSharedWaypointStatus(c *gin.Context) {
	route := sharedRoute(c)
	wp, ok := sharedWaypoint(c, route)
	if !ok {
		return
	}
	updateStatus(c, wp, route)
}

// RescheduleSharedWaypoint is the share-token variant of the reschedule
// action.
func RescheduleSharedWaypoint(c *gin.Context) {
	route := sharedRoute(c)
	wp, ok := sharedWaypoint(c, route)
	if !ok {
		return
	}
	reschedule(c, wp)
}
