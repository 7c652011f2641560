package planner

import (
	"context"
	"fmt"

	"github.com/angelaneason/routie-roo/internal/directions"
)

// InsertNew places newly added stops into an existing route while holding the
// relative order of existing stops fixed.
//
// Each new stop is processed in input order. Every insertion slot after the
// fixed origin is evaluated by asking the directions service for the total
// distance of the candidate ordering; the slot with the minimum total wins,
// ties going to the lowest slot. Earlier insertions are visible to later
// ones. A trailing directions call refreshes aggregates and coordinates for
// the final order.
//
// Any directions failure aborts the whole operation: no partial placement is
// ever returned.
func InsertNew(ctx context.Context, provider directions.Provider, existing, added []Stop) (InsertReport, error) {
	if len(added) == 0 {
		plan, err := Recalculate(ctx, provider, existing)
		if err != nil {
			return InsertReport{}, err
		}
		return InsertReport{Plan: plan, OptimizedCount: 0}, nil
	}

	routable, gaps, err := splitRoutable(existing)
	if err != nil {
		return InsertReport{}, err
	}

	for _, stop := range added {
		if stop.IsGap {
			// Breaks have no travel cost; keep them attached to the current
			// last stop rather than scanning insertion slots.
			idx := len(routable) - 1
			gaps[idx] = append(gaps[idx], stop)
			continue
		}

		bestSlot := -1
		bestDistance := 0

		// Slot 0 is reserved for the fixed origin.
		for slot := 1; slot <= len(routable); slot++ {
			candidate := make([]Stop, 0, len(routable)+1)
			candidate = append(candidate, routable[:slot]...)
			candidate = append(candidate, stop)
			candidate = append(candidate, routable[slot:]...)

			result, err := provider.ComputeRoute(ctx, addresses(candidate), false)
			if err != nil {
				return InsertReport{}, fmt.Errorf("planner: evaluate slot %d for %q: %w", slot, stop.Address, err)
			}

			if bestSlot == -1 || result.DistanceMeters < bestDistance {
				bestSlot = slot
				bestDistance = result.DistanceMeters
			}
		}

		// Shift gap attachments at or after the chosen slot.
		for idx := len(routable) - 1; idx >= bestSlot; idx-- {
			if g, ok := gaps[idx]; ok {
				gaps[idx+1] = g
				delete(gaps, idx)
			}
		}

		routable = append(routable[:bestSlot], append([]Stop{stop}, routable[bestSlot:]...)...)
	}

	result, err := provider.ComputeRoute(ctx, addresses(routable), false)
	if err != nil {
		return InsertReport{}, fmt.Errorf("planner: final recalculation: %w", err)
	}

	coords, err := coordsByID(routable, result.StopCoords)
	if err != nil {
		return InsertReport{}, err
	}

	return InsertReport{
		Plan: Plan{
			Stops:           rebuild(routable, gaps, identity(len(routable))),
			DistanceMeters:  result.DistanceMeters,
			DurationSeconds: result.DurationSeconds,
			Coords:          coords,
		},
		OptimizedCount: len(added),
	}, nil
}
