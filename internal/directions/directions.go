package directions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Lat float64
	Lng float64
}

// Result is one computed driving route over an ordered address list.
//
// StopCoords holds one coordinate per input stop, taken from the per-leg
// start locations (and the final leg's end location for the last stop).
// Order is the optimized permutation of the intermediate stops, present only
// when optimization was requested.
type Result struct {
	DistanceMeters  int
	DurationSeconds int
	StopCoords      []LatLng
	Order           []int
}

// Provider computes a driving route over an ordered list of stop addresses.
// When optimize is true the provider may reorder the intermediate stops
// (everything between the first and last address) and reports the chosen
// permutation in Result.Order.
type Provider interface {
	ComputeRoute(ctx context.Context, addresses []string, optimize bool) (Result, error)
}

// ErrNoRoute is returned when the directions service answers successfully but
// finds no route between the given stops.
var ErrNoRoute = errors.New("directions: no route found")

func validateAddresses(addresses []string) error {
	if len(addresses) < 2 {
		return fmt.Errorf("directions: need at least 2 addresses, got %d", len(addresses))
	}
	for i, a := range addresses {
		if strings.TrimSpace(a) == "" {
			return fmt.Errorf("directions: address %d is empty", i)
		}
	}
	return nil
}

// parseDuration converts the wire duration (seconds suffixed with "s",
// e.g. "3600s") into whole seconds.
func parseDuration(raw string) (int, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), "s")
	if trimmed == "" {
		return 0, fmt.Errorf("directions: empty duration %q", raw)
	}
	secs, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("directions: parse duration %q: %w", raw, err)
	}
	return int(secs), nil
}
