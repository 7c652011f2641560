package waypoints

import (
	"encoding/binary"
	"fmt"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"gorm.io/gorm"

	"github.com/angelaneason/routie-roo/internal/models"
	"github.com/angelaneason/routie-roo/internal/planner"
)

// ForRoute returns the route's waypoints in visiting order.
func ForRoute(tx *gorm.DB, routeID uint) ([]models.Waypoint, error) {
	var ws []models.Waypoint
	if err := tx.Where("route_id = ?", routeID).Order("position asc").Find(&ws).Error; err != nil {
		return nil, fmt.Errorf("waypoints: load route %d: %w", routeID, err)
	}
	return ws, nil
}

// NormalizePositions renumbers the route's waypoints to a contiguous 0-based
// sequence, preserving relative order. Every mutating operation goes through
// here so the contiguity invariant holds no matter which entry point changed
// the set.
func NormalizePositions(tx *gorm.DB, routeID uint) error {
	ws, err := ForRoute(tx, routeID)
	if err != nil {
		return err
	}
	for i := range ws {
		if ws[i].Position == i {
			continue
		}
		if err := tx.Model(&ws[i]).Update("position", i).Error; err != nil {
			return fmt.Errorf("waypoints: renumber waypoint %d: %w", ws[i].ID, err)
		}
	}
	return nil
}

// RemovalLeavesGapFirst reports whether deleting the given waypoint would
// leave a gap stop at the head of the route. Such a route could never be
// recalculated, so the removal has to be rejected up front.
func RemovalLeavesGapFirst(ws []models.Waypoint, id uint) bool {
	for _, w := range ws {
		if w.ID == id {
			continue
		}
		return w.IsGapStop
	}
	return false
}

// ToStops converts stored waypoints into the planner's view.
func ToStops(ws []models.Waypoint) []planner.Stop {
	stops := make([]planner.Stop, len(ws))
	for i, w := range ws {
		stops[i] = planner.Stop{ID: w.ID, Address: w.Address, IsGap: w.IsGapStop}
	}
	return stops
}

// buildPath encodes the ordered routable coordinates as a WKB LINESTRING.
func buildPath(plan planner.Plan) ([]byte, error) {
	coords := make([]geom.Coord, 0, len(plan.Stops))
	for _, s := range plan.Stops {
		c, ok := plan.Coords[s.ID]
		if !ok {
			continue
		}
		coords = append(coords, geom.Coord{c.Lng, c.Lat})
	}
	if len(coords) < 2 {
		return nil, nil
	}

	line := geom.NewLineString(geom.XY)
	if _, err := line.SetCoords(coords); err != nil {
		return nil, fmt.Errorf("waypoints: build path: %w", err)
	}
	return wkb.Marshal(line, binary.LittleEndian)
}

// ApplyPlan persists a planner result inside the caller's transaction:
// positions follow the plan's stop order, coordinates come from the
// directions legs, and the route's aggregates and path geometry are
// refreshed. New-stop markers are left untouched: a plain recalculation must
// not change which stops a later re-optimize treats as new. Nothing is
// written if any step fails, so a rolled-back transaction leaves the
// invariants intact.
func ApplyPlan(tx *gorm.DB, route *models.Route, plan planner.Plan) error {
	return applyPlan(tx, route, plan, false)
}

// ApplyOptimizedPlan is ApplyPlan for the re-optimize path: the plan has
// placed every new stop, so the new-since-optimization markers are cleared
// in the same transaction.
func ApplyOptimizedPlan(tx *gorm.DB, route *models.Route, plan planner.Plan) error {
	return applyPlan(tx, route, plan, true)
}

func applyPlan(tx *gorm.DB, route *models.Route, plan planner.Plan, clearNewMarkers bool) error {
	for position, stop := range plan.Stops {
		updates := map[string]interface{}{
			"position": position,
		}
		if clearNewMarkers {
			updates["new_since_optimization"] = false
		}
		if c, ok := plan.Coords[stop.ID]; ok {
			updates["lat"] = c.Lat
			updates["lng"] = c.Lng
		}
		if err := tx.Model(&models.Waypoint{}).Where("id = ? AND route_id = ?", stop.ID, route.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("waypoints: apply plan to waypoint %d: %w", stop.ID, err)
		}
	}

	path, err := buildPath(plan)
	if err != nil {
		return err
	}

	route.TotalDistanceMeters = plan.DistanceMeters
	route.TotalDurationSeconds = plan.DurationSeconds
	route.Path = path
	if err := tx.Model(route).Updates(map[string]interface{}{
		"total_distance_meters":  plan.DistanceMeters,
		"total_duration_seconds": plan.DurationSeconds,
		"path":                   path,
	}).Error; err != nil {
		return fmt.Errorf("waypoints: apply plan to route %d: %w", route.ID, err)
	}
	return nil
}
