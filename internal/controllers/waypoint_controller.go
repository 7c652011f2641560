package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/angelaneason/routie-roo/internal/config"
	"github.com/angelaneason/routie-roo/internal/models"
	"github.com/angelaneason/routie-roo/internal/planner"
	"github.com/angelaneason/routie-roo/internal/waypoints"
)

// AddWaypoint appends a stop to the end of an owned route and marks it as
// new since the last optimization. Aggregates are refreshed by a follow-up
// recalculate or re-optimize call.
func AddWaypoint(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	var input waypointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr, ok := resolveAddress(c, input)
	if !ok {
		return
	}

	ws, err := waypoints.ForRoute(config.DB, route.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	wp := models.Waypoint{
		RouteID:              route.ID,
		Position:             len(ws),
		Address:              addr,
		ContactName:          input.ContactName,
		Status:               models.StatusPending,
		StopType:             input.StopType,
		Color:                input.Color,
		IsGapStop:            input.IsGapStop,
		NewSinceOptimization: true,
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	if err := tx.Create(&wp).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create waypoint failed: " + err.Error()})
		return
	}
	if err := waypoints.NormalizePositions(tx, route.ID); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"waypoint": wp})
}

// UpdateWaypoint edits a waypoint's address or cosmetic fields. An address
// edit leaves the stored aggregates stale until the caller recalculates.
func UpdateWaypoint(c *gin.Context) {
	wpID, ok := parseID(c, "id")
	if !ok {
		return
	}
	wp, _, ok := ownedWaypoint(c, wpID)
	if !ok {
		return
	}

	var input struct {
		Address     *string `json:"address"`
		ContactName *string `json:"contact_name"`
		StopType    *string `json:"stop_type"`
		Color       *string `json:"color"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Address != nil {
		if *input.Address == "" && !wp.IsGapStop {
			c.JSON(http.StatusBadRequest, gin.H{"error": "waypoint address must not be empty"})
			return
		}
		wp.Address = *input.Address
	}
	if input.ContactName != nil {
		wp.ContactName = *input.ContactName
	}
	if input.StopType != nil {
		wp.StopType = *input.StopType
	}
	if input.Color != nil {
		wp.Color = *input.Color
	}

	if err := config.DB.Save(&wp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"waypoint": wp})
}

// RemoveWaypoint deletes a stop and renumbers the remaining positions.
func RemoveWaypoint(c *gin.Context) {
	wpID, ok := parseID(c, "id")
	if !ok {
		return
	}
	wp, route, ok := ownedWaypoint(c, wpID)
	if !ok {
		return
	}

	ws, err := waypoints.ForRoute(config.DB, route.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if waypoints.RemovalLeavesGapFirst(ws, wp.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "removal would leave a gap stop at the start of the route"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	if err := tx.Delete(&wp).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete waypoint failed: " + err.Error()})
		return
	}
	if err := waypoints.NormalizePositions(tx, route.ID); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Waypoint removed"})
}

// ReorderWaypoints applies an explicit position assignment. The waypoint
// currently at position 0 is the fixed origin and must stay there.
func ReorderWaypoints(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	var input struct {
		Waypoints []struct {
			WaypointID uint `json:"waypoint_id" binding:"required"`
			Position   int  `json:"position"`
		} `json:"waypoints" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, err := waypoints.ForRoute(config.DB, route.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	assigned := make(map[uint]int, len(input.Waypoints))
	used := make(map[int]bool, len(input.Waypoints))
	for _, entry := range input.Waypoints {
		if _, dup := assigned[entry.WaypointID]; dup || used[entry.Position] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate waypoint or position in reorder"})
			return
		}
		assigned[entry.WaypointID] = entry.Position
		used[entry.Position] = true
	}

	if len(assigned) != len(ws) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reorder must assign every waypoint exactly once"})
		return
	}
	for _, w := range ws {
		pos, ok := assigned[w.ID]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reorder must assign every waypoint exactly once"})
			return
		}
		if pos < 0 || pos >= len(ws) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "positions must form a contiguous 0-based sequence"})
			return
		}
		if w.Position == 0 && pos != 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "the origin waypoint cannot leave position 0"})
			return
		}
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	for id, pos := range assigned {
		if err := tx.Model(&models.Waypoint{}).Where("id = ? AND route_id = ?", id, route.ID).Update("position", pos).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Reorder failed: " + err.Error()})
			return
		}
	}
	if err := waypoints.NormalizePositions(tx, route.ID); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Waypoints reordered"})
}

// RecalculateRoute re-derives aggregate distance, duration, per-waypoint
// coordinates, and path geometry from the current order. Idempotent for a
// stable directions answer.
func RecalculateRoute(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	ws, err := waypoints.ForRoute(config.DB, route.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	plan, err := planner.Recalculate(c.Request.Context(), Directions, waypoints.ToStops(ws))
	if err != nil {
		respondPlanError(c, err)
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	if err := waypoints.ApplyPlan(tx, &route, plan); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_distance_meters":  plan.DistanceMeters,
		"total_duration_seconds": plan.DurationSeconds,
	})
}

// ReoptimizeRoute places stops added since the last optimization. Existing
// stops keep their relative order, even when it was manually rearranged; new
// stops are inserted wherever they add the least distance. With no new stops
// it degrades to a plain recalculation of the current order.
func ReoptimizeRoute(c *gin.Context) {
	routeID, ok := parseID(c, "id")
	if !ok {
		return
	}
	route, ok := ownedRoute(c, routeID)
	if !ok {
		return
	}

	ws, err := waypoints.ForRoute(config.DB, route.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var existing, added []models.Waypoint
	for _, w := range ws {
		if w.NewSinceOptimization {
			added = append(added, w)
		} else {
			existing = append(existing, w)
		}
	}
	// New stops are placed in the order they were added.
	sort.Slice(added, func(i, j int) bool { return added[i].ID < added[j].ID })

	report, err := planner.InsertNew(
		c.Request.Context(),
		Directions,
		waypoints.ToStops(existing),
		waypoints.ToStops(added),
	)
	if err != nil {
		respondPlanError(c, err)
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	if err := waypoints.ApplyOptimizedPlan(tx, &route, report.Plan); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	message := "Route re-optimized"
	if report.OptimizedCount == 0 {
		message = "No new stops to optimize"
	}
	logrus.WithField("route_id", route.ID).WithField("optimized_count", report.OptimizedCount).Info("reoptimize finished")

	c.JSON(http.StatusOK, gin.H{
		"optimized_count":        report.OptimizedCount,
		"message":                message,
		"total_distance_meters":  report.DistanceMeters,
		"total_duration_seconds": report.DurationSeconds,
	})
}
