package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelaneason/routie-roo/internal/directions"
)

// Stop is the planner's view of one waypoint: identity plus the address sent
// to the directions service. Gap stops are break placeholders; they hold a
// position in the route but are never sent to the directions service.
type Stop struct {
	ID      uint
	Address string
	IsGap   bool
}

// Plan is the outcome of an optimization or recalculation: the final visiting
// order, aggregate metrics, and one coordinate per routable stop.
type Plan struct {
	Stops           []Stop
	DistanceMeters  int
	DurationSeconds int

	// Coords maps stop ID to the coordinate reported by the directions
	// service. Gap stops have no entry.
	Coords map[uint]directions.LatLng
}

// InsertReport extends Plan with the number of newly placed stops.
type InsertReport struct {
	Plan
	OptimizedCount int
}

var ErrTooFewStops = errors.New("planner: need at least 2 routable stops")

// splitRoutable separates the routable sequence from gap stops. Gap stops are
// recorded against the index of the routable stop they follow, so a break
// stays attached to its stop when the order changes.
func splitRoutable(stops []Stop) ([]Stop, map[int][]Stop, error) {
	routable := make([]Stop, 0, len(stops))
	gaps := make(map[int][]Stop)

	for _, s := range stops {
		if s.IsGap {
			if len(routable) == 0 {
				return nil, nil, errors.New("planner: route cannot start with a gap stop")
			}
			idx := len(routable) - 1
			gaps[idx] = append(gaps[idx], s)
			continue
		}
		routable = append(routable, s)
	}

	if len(routable) < 2 {
		return nil, nil, ErrTooFewStops
	}
	return routable, gaps, nil
}

// rebuild interleaves gap stops back into a routable ordering. permutation
// maps final routable slots to original routable indices.
func rebuild(routable []Stop, gaps map[int][]Stop, permutation []int) []Stop {
	out := make([]Stop, 0, len(routable))
	for _, orig := range permutation {
		out = append(out, routable[orig])
		out = append(out, gaps[orig]...)
	}
	return out
}

func addresses(stops []Stop) []string {
	out := make([]string, len(stops))
	for i, s := range stops {
		out[i] = s.Address
	}
	return out
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func coordsByID(routable []Stop, coords []directions.LatLng) (map[uint]directions.LatLng, error) {
	if len(coords) != len(routable) {
		return nil, fmt.Errorf("planner: directions service returned %d coordinates for %d stops", len(coords), len(routable))
	}
	out := make(map[uint]directions.LatLng, len(routable))
	for i, s := range routable {
		out[s.ID] = coords[i]
	}
	return out, nil
}

// Recalculate derives aggregate distance, duration, and per-stop coordinates
// for the current order without any reordering. One directions call; gap
// stops contribute zero distance.
func Recalculate(ctx context.Context, provider directions.Provider, stops []Stop) (Plan, error) {
	routable, gaps, err := splitRoutable(stops)
	if err != nil {
		return Plan{}, err
	}

	result, err := provider.ComputeRoute(ctx, addresses(routable), false)
	if err != nil {
		return Plan{}, fmt.Errorf("planner: recalculate: %w", err)
	}

	coords, err := coordsByID(routable, result.StopCoords)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Stops:           rebuild(routable, gaps, identity(len(routable))),
		DistanceMeters:  result.DistanceMeters,
		DurationSeconds: result.DurationSeconds,
		Coords:          coords,
	}, nil
}

// FullOptimize asks the directions service for a visiting order of the
// intermediate stops that minimizes total path length. The first stop is the
// fixed origin and the last stop keeps its place; only the stops between them
// are reordered. The result is whatever ordering the service returns; no
// global optimality is guaranteed.
func FullOptimize(ctx context.Context, provider directions.Provider, stops []Stop) (Plan, error) {
	routable, gaps, err := splitRoutable(stops)
	if err != nil {
		return Plan{}, err
	}

	result, err := provider.ComputeRoute(ctx, addresses(routable), true)
	if err != nil {
		return Plan{}, fmt.Errorf("planner: full optimize: %w", err)
	}

	permutation := identity(len(routable))
	if k := len(routable) - 2; k > 0 && len(result.Order) > 0 {
		if len(result.Order) != k {
			return Plan{}, fmt.Errorf("planner: directions service returned %d order indices for %d intermediates", len(result.Order), k)
		}
		seen := make(map[int]bool, k)
		for slot, orig := range result.Order {
			if orig < 0 || orig >= k || seen[orig] {
				return Plan{}, fmt.Errorf("planner: invalid intermediate order %v", result.Order)
			}
			seen[orig] = true
			permutation[1+slot] = 1 + orig
		}
	}

	// Coordinates come back in the optimized visiting order.
	ordered := make([]Stop, len(routable))
	for slot, orig := range permutation {
		ordered[slot] = routable[orig]
	}
	coords, err := coordsByID(ordered, result.StopCoords)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Stops:           rebuild(routable, gaps, permutation),
		DistanceMeters:  result.DistanceMeters,
		DurationSeconds: result.DurationSeconds,
		Coords:          coords,
	}, nil
}
