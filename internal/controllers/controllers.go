package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/angelaneason/routie-roo/internal/config"
	"github.com/angelaneason/routie-roo/internal/contacts"
	"github.com/angelaneason/routie-roo/internal/directions"
	"github.com/angelaneason/routie-roo/internal/models"
)

// Package-level collaborators, wired once from main.
var (
	Directions directions.Provider
	Directory  contacts.Directory
)

// Init wires the external collaborators used by the controllers.
func Init(provider directions.Provider, directory contacts.Directory) {
	Directions = provider
	Directory = directory
}

func authedUserID(c *gin.Context) uint {
	return uint(c.MustGet("user_id").(float64))
}

func parseID(c *gin.Context, param string) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(raw), true
}

// ownedRoute loads a route scoped to the authenticated owner. A route that
// does not exist and a route owned by someone else are indistinguishable.
func ownedRoute(c *gin.Context, routeID uint) (models.Route, bool) {
	userID := authedUserID(c)

	var route models.Route
	err := config.DB.Where("id = ? AND user_id = ?", routeID, userID).First(&route).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return models.Route{}, false
	}
	return route, true
}

// ownedWaypoint loads a waypoint together with its owning route, scoped to
// the authenticated owner.
func ownedWaypoint(c *gin.Context, waypointID uint) (models.Waypoint, models.Route, bool) {
	userID := authedUserID(c)

	var wp models.Waypoint
	if err := config.DB.First(&wp, waypointID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Waypoint not found"})
		return models.Waypoint{}, models.Route{}, false
	}

	var route models.Route
	err := config.DB.Where("id = ? AND user_id = ?", wp.RouteID, userID).First(&route).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Waypoint not found"})
		return models.Waypoint{}, models.Route{}, false
	}
	return wp, route, true
}
