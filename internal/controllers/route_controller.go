package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/angelaneason/routie-roo/internal/config"
	"github.com/angelaneason/routie-roo/internal/models"
	"github.com/angelaneason/routie-roo/internal/planner"
)

// RouteResponse mirrors models.Route but carries the path as a GeoJSON
// string for API output.
type RouteResponse struct {
	ID                   uint              `json:"ID"`
	CreatedAt            time.Time         `json:"CreatedAt"`
	UpdatedAt            time.Time         `json:"UpdatedAt"`
	Name                 string            `json:"name"`
	Notes                string            `json:"notes"`
	TotalDistanceMeters  int               `json:"total_distance_meters"`
	TotalDurationSeconds int               `json:"total_duration_seconds"`
	Optimized            bool              `json:"optimized"`
	Archived             bool              `json:"archived"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
	Public               bool              `json:"public"`
	ShareToken           *string           `json:"share_token,omitempty"`
	Path                 string            `json:"path,omitempty"`
	Waypoints            []models.Waypoint `json:"waypoints"`
}

func toRouteResponse(route models.Route) RouteResponse {
	jsonPath, _ := convertWKBToGeoJSON(route.Path)
	return RouteResponse{
		ID:                   route.ID,
		CreatedAt:            route.CreatedAt,
		UpdatedAt:            route.UpdatedAt,
		Name:                 route.Name,
		Notes:                route.Notes,
		TotalDistanceMeters:  route.TotalDistanceMeters,
		TotalDurationSeconds: route.TotalDurationSeconds,
		Optimized:            route.Optimized,
		Archived:             route.Archived,
		CompletedAt:          route.CompletedAt,
		Public:               route.Public,
		ShareToken:           route.ShareToken,
		Path:                 jsonPath,
		Waypoints:            route.Waypoints,
	}
}

// convertWKBToGeoJSON converts WKB bytes into a GeoJSON string
func convertWKBToGeoJSON(wkbBytes []byte) (string, error) {
	if len(wkbBytes) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return "", err
	}
	b, err := gjson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// respondPlanError maps planner failures onto the HTTP error taxonomy:
// bad stop sets are client errors, directions failures are upstream errors.
func respondPlanError(c *gin.Context, err error) {
	if errors.Is(err, planner.ErrTooFewStops) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "route needs at least 2 routable waypoints"})
		return
	}
	logrus.WithError(err).Error("directions request failed")
	c.JSON(http.StatusBadGateway, gin.H{"error": "route calculation failed: " + err.Error()})
}

type waypointInput struct {
	Address     string `json:"address"`
	ContactName string `json:"contact_name"`
	StopType    string `json:"stop_type"`
	Color       string `json:"color"`
	IsGapStop   bool   `json:"is_gap_stop"`
}

// resolveAddress fills an empty address from the contact directory.
func resolveAddress(c *gin.Context, in waypointInput) (string, bool) {
	if in.Address != "" || in.IsGapStop {
		return in.Address, true
	}
	if in.ContactName == "" || Directory == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "waypoint address must not be empty"})
		return "", false
	}

	contact, found, err := Directory.Lookup(c.Request.Context(), in.ContactName)
	if err != nil || !found || contact.Address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no address found for contact " + in.ContactName})
		return "", false
	}
	return contact.Address, true
}

// CreateRoute creates a named route from at least two waypoints, optionally
// asking the directions service to optimize the visiting order. The route
// and its waypoints are only persisted once the directions response is
// known-good.
func CreateRoute(c *gin.Context) {
	var input struct {
		Name                 string          `json:"name" binding:"required"`
		Notes                string          `json:"notes"`
		Optimize             bool            `json:"optimize"`
		StartingPointAddress string          `json:"starting_point_address"`
		Waypoints            []waypointInput `json:"waypoints" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("CreateRoute: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if len(input.Waypoints) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a route needs at least 2 waypoints"})
		return
	}

	userID := authedUserID(c)

	inputs := input.Waypoints
	if input.StartingPointAddress != "" {
		// A dedicated starting point occupies position 0 permanently.
		inputs = append([]waypointInput{{Address: input.StartingPointAddress, StopType: "origin"}}, inputs...)
	}
	if inputs[0].IsGapStop {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the first waypoint cannot be a gap stop"})
		return
	}

	stops := make([]planner.Stop, len(inputs))
	for i, in := range inputs {
		addr, ok := resolveAddress(c, in)
		if !ok {
			return
		}
		inputs[i].Address = addr
		stops[i] = planner.Stop{ID: uint(i), Address: addr, IsGap: in.IsGapStop}
	}

	var (
		plan planner.Plan
		err  error
	)
	if input.Optimize {
		plan, err = planner.FullOptimize(c.Request.Context(), Directions, stops)
	} else {
		plan, err = planner.Recalculate(c.Request.Context(), Directions, stops)
	}
	if err != nil {
		respondPlanError(c, err)
		return
	}

	route := models.Route{
		Name:                 input.Name,
		Notes:                input.Notes,
		UserID:               userID,
		Optimized:            input.Optimize,
		TotalDistanceMeters:  plan.DistanceMeters,
		TotalDurationSeconds: plan.DurationSeconds,
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	if err := tx.Create(&route).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create route failed: " + err.Error()})
		return
	}

	for position, stop := range plan.Stops {
		in := inputs[stop.ID]
		wp := models.Waypoint{
			RouteID:     route.ID,
			Position:    position,
			Address:     in.Address,
			ContactName: in.ContactName,
			Status:      models.StatusPending,
			StopType:    in.StopType,
			Color:       in.Color,
			IsGapStop:   in.IsGapStop,
		}
		if coord, ok := plan.Coords[stop.ID]; ok {
			wp.Lat = coord.Lat
			wp.Lng = coord.Lng
		}
		if err := tx.Create(&wp).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Create waypoint failed: " + err.Error()})
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	config.DB.Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
		return db.Order("waypoints.position asc")
	}).First(&route, route.ID)

	c.JSON(http.StatusCreated, gin.H{
		"route_id":               route.ID,
		"total_distance_meters":  route.TotalDistanceMeters,
		"total_duration_seconds": route.TotalDurationSeconds,
		"route":                  toRouteResponse(route),
	})
}

// ListRoutes returns the authenticated owner's routes with waypoints.
func ListRoutes(c *gin.Context) {
	userID := authedUserID(c)

	query := config.DB.Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
		return db.Order("waypoints.position asc")
	}).Where("user_id = ?", userID)

	if c.Query("archived") != "true" {
		query = query.Where("archived = ?", false)
	}

	var routes []models.Route
	query.Order("created_at desc").Find(&routes)

	responses := make([]RouteResponse, 0, len(routes))
	for _, r := range routes {
		responses = append(responses, toRouteResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"routes": responses})
}

// GetRoute returns a single owned route with waypoints in visiting order.
func GetRoute(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	config.DB.Preload("Waypoints", func(db *gorm.DB) *gorm.DB {
		return db.Order("waypoints.position asc")
	}).First(&route, route.ID)

	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// UpdateRoute updates route metadata (name, notes).
func UpdateRoute(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	var input struct {
		Name  *string `json:"name"`
		Notes *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != nil {
		if *input.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "route name must not be empty"})
			return
		}
		route.Name = *input.Name
	}
	if input.Notes != nil {
		route.Notes = *input.Notes
	}

	if err := config.DB.Save(&route).Error; err != nil {
		logrus.WithError(err).Error("UpdateRoute: save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": toRouteResponse(route)})
}

// ArchiveRoute soft-deletes a route by flipping its archived flag.
func ArchiveRoute(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	route.Archived = true
	if err := config.DB.Model(&route).Update("archived", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Route archived"})
}

// DeleteRoute removes a route and its waypoints.
func DeleteRoute(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	if err := tx.Where("route_id = ?", route.ID).Delete(&models.Waypoint{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete waypoints: " + err.Error()})
		return
	}
	if err := tx.Delete(&route).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete route: " + err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Route deleted successfully"})
}

// ShareRoute mints a share token and makes the route publicly executable by
// anyone holding the link.
func ShareRoute(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	if route.ShareToken == nil {
		token := uuid.NewString()
		route.ShareToken = &token
	}
	route.Public = true

	if err := config.DB.Model(&route).Updates(map[string]interface{}{
		"share_token": route.ShareToken,
		"public":      true,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"share_token": *route.ShareToken})
}

// UnshareRoute revokes the share link.
func UnshareRoute(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	if err := config.DB.Model(&route).Updates(map[string]interface{}{
		"share_token": nil,
		"public":      false,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Share link revoked"})
}
