package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/angelaneason/routie-roo/internal/directions"
)

// lineMock answers any ordering by placing each address at a point on a
// line; total distance is the sum of absolute leg lengths. Durations are one
// tenth of the distance.
func lineMock(points map[string]float64) *directions.Mock {
	m := directions.NewMock()
	m.Fallback = func(addresses []string, optimize bool) (directions.Result, error) {
		total := 0.0
		coords := make([]directions.LatLng, len(addresses))
		for i, a := range addresses {
			x, ok := points[a]
			if !ok {
				return directions.Result{}, errors.New("unknown address " + a)
			}
			coords[i] = directions.LatLng{Lat: x, Lng: 0}
			if i > 0 {
				prev := points[addresses[i-1]]
				if x > prev {
					total += x - prev
				} else {
					total += prev - x
				}
			}
		}
		return directions.Result{
			DistanceMeters:  int(total),
			DurationSeconds: int(total) / 10,
			StopCoords:      coords,
		}, nil
	}
	return m
}

func orderOf(t *testing.T, plan Plan) []string {
	t.Helper()
	out := make([]string, len(plan.Stops))
	for i, s := range plan.Stops {
		out[i] = s.Address
	}
	return out
}

func assertOrder(t *testing.T, plan Plan, want []string) {
	t.Helper()
	got := orderOf(t, plan)
	if len(got) != len(want) {
		t.Fatalf("stop count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stop %d = %q, want %q (full order %v)", i, got[i], want[i], got)
		}
	}
}

func TestRecalculate(t *testing.T) {
	stops := []Stop{
		{ID: 1, Address: "Origin"},
		{ID: 2, Address: "100 A St"},
		{ID: 3, Address: "200 B St"},
	}

	mock := directions.NewMock().Add([]string{"Origin", "100 A St", "200 B St"}, directions.Result{
		DistanceMeters:  5000,
		DurationSeconds: 600,
		StopCoords: []directions.LatLng{
			{Lat: 40.0, Lng: -74.0},
			{Lat: 40.1, Lng: -74.1},
			{Lat: 40.2, Lng: -74.2},
		},
	})

	plan, err := Recalculate(context.Background(), mock, stops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.DistanceMeters != 5000 {
		t.Fatalf("distance = %d, want 5000", plan.DistanceMeters)
	}
	if plan.DurationSeconds != 600 {
		t.Fatalf("duration = %d, want 600", plan.DurationSeconds)
	}
	assertOrder(t, plan, []string{"Origin", "100 A St", "200 B St"})

	if c := plan.Coords[2]; c.Lat != 40.1 || c.Lng != -74.1 {
		t.Fatalf("coord for stop 2 = %+v", c)
	}
	if mock.Calls != 1 {
		t.Fatalf("directions calls = %d, want 1", mock.Calls)
	}
}

func TestRecalculateTooFewStops(t *testing.T) {
	_, err := Recalculate(context.Background(), directions.NewMock(), []Stop{{ID: 1, Address: "Origin"}})
	if !errors.Is(err, ErrTooFewStops) {
		t.Fatalf("error = %v, want ErrTooFewStops", err)
	}
}

func TestRecalculateGapStopsExcluded(t *testing.T) {
	stops := []Stop{
		{ID: 1, Address: "Origin"},
		{ID: 2, Address: "A"},
		{ID: 3, Address: "lunch break", IsGap: true},
		{ID: 4, Address: "B"},
	}

	// Only the routable addresses reach the directions service.
	mock := directions.NewMock().Add([]string{"Origin", "A", "B"}, directions.Result{
		DistanceMeters:  1200,
		DurationSeconds: 120,
		StopCoords:      []directions.LatLng{{Lat: 1}, {Lat: 2}, {Lat: 3}},
	})

	plan, err := Recalculate(context.Background(), mock, stops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, plan, []string{"Origin", "A", "lunch break", "B"})
	if _, ok := plan.Coords[3]; ok {
		t.Fatal("gap stop should have no coordinate")
	}
}

func TestFullOptimizeAppliesOrder(t *testing.T) {
	stops := []Stop{
		{ID: 10, Address: "Origin"},
		{ID: 11, Address: "A"},
		{ID: 12, Address: "B"},
		{ID: 13, Address: "C"},
		{ID: 14, Address: "End"},
	}

	// The service visits the intermediates as C, A, B.
	mock := directions.NewMock().Add([]string{"Origin", "A", "B", "C", "End"}, directions.Result{
		DistanceMeters:  9000,
		DurationSeconds: 900,
		Order:           []int{2, 0, 1},
		StopCoords: []directions.LatLng{
			{Lat: 0}, {Lat: 3}, {Lat: 1}, {Lat: 2}, {Lat: 4},
		},
	})

	plan, err := FullOptimize(context.Background(), mock, stops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, plan, []string{"Origin", "C", "A", "B", "End"})

	// Coordinates come back in visiting order: C got Lat 3.
	if c := plan.Coords[13]; c.Lat != 3 {
		t.Fatalf("coord for C = %+v, want Lat 3", c)
	}
	if plan.Stops[0].ID != 10 {
		t.Fatalf("origin moved: first stop ID = %d", plan.Stops[0].ID)
	}
	if plan.Stops[len(plan.Stops)-1].ID != 14 {
		t.Fatalf("final stop moved: last stop ID = %d", plan.Stops[len(plan.Stops)-1].ID)
	}
}

func TestFullOptimizeWithoutOrderKeepsInput(t *testing.T) {
	stops := []Stop{
		{ID: 1, Address: "Origin"},
		{ID: 2, Address: "A"},
		{ID: 3, Address: "B"},
	}

	mock := directions.NewMock().Add([]string{"Origin", "A", "B"}, directions.Result{
		DistanceMeters:  5000,
		DurationSeconds: 600,
		StopCoords:      []directions.LatLng{{Lat: 1}, {Lat: 2}, {Lat: 3}},
	})

	plan, err := FullOptimize(context.Background(), mock, stops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, plan, []string{"Origin", "A", "B"})
	if plan.DistanceMeters != 5000 || plan.DurationSeconds != 600 {
		t.Fatalf("aggregates = %d/%d, want 5000/600", plan.DistanceMeters, plan.DurationSeconds)
	}
}

func TestFullOptimizeRejectsBadPermutation(t *testing.T) {
	stops := []Stop{
		{ID: 1, Address: "Origin"},
		{ID: 2, Address: "A"},
		{ID: 3, Address: "B"},
		{ID: 4, Address: "End"},
	}

	mock := directions.NewMock().Add([]string{"Origin", "A", "B", "End"}, directions.Result{
		DistanceMeters: 100,
		Order:          []int{1, 1},
		StopCoords:     []directions.LatLng{{}, {}, {}, {}},
	})

	if _, err := FullOptimize(context.Background(), mock, stops); err == nil {
		t.Fatal("expected error for duplicate order index")
	}
}

func TestInsertNewPicksShortestSlot(t *testing.T) {
	existing := []Stop{
		{ID: 1, Address: "O"},
		{ID: 2, Address: "A"},
		{ID: 3, Address: "B"},
	}
	added := []Stop{{ID: 9, Address: "D"}}

	mock := lineMock(map[string]float64{"O": 0, "A": 10, "B": 20, "D": 12})

	report, err := InsertNew(context.Background(), mock, existing, added)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// D sits between A and B on the line, so the cheapest slot is after A.
	assertOrder(t, report.Plan, []string{"O", "A", "D", "B"})
	if report.OptimizedCount != 1 {
		t.Fatalf("optimizedCount = %d, want 1", report.OptimizedCount)
	}
	if report.DistanceMeters != 20 {
		t.Fatalf("distance = %d, want 20", report.DistanceMeters)
	}
	// 3 candidate slots plus the final recalculation.
	if mock.Calls != 4 {
		t.Fatalf("directions calls = %d, want 4", mock.Calls)
	}
}

func TestInsertNewTieBreaksToLowestSlot(t *testing.T) {
	existing := []Stop{
		{ID: 1, Address: "O"},
		{ID: 2, Address: "A"},
		{ID: 3, Address: "B"},
	}
	added := []Stop{{ID: 9, Address: "D"}}

	// Every candidate ordering reports the same total.
	mock := directions.NewMock()
	mock.Fallback = func(addresses []string, optimize bool) (directions.Result, error) {
		coords := make([]directions.LatLng, len(addresses))
		return directions.Result{DistanceMeters: 500, DurationSeconds: 50, StopCoords: coords}, nil
	}

	report, err := InsertNew(context.Background(), mock, existing, added)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, report.Plan, []string{"O", "D", "A", "B"})
}

func TestInsertNewNeverDisplacesOrigin(t *testing.T) {
	existing := []Stop{
		{ID: 1, Address: "O"},
		{ID: 2, Address: "A"},
	}
	// D sits before the origin on the line, but slot 0 is never a candidate.
	mock := lineMock(map[string]float64{"O": 10, "A": 20, "D": 0})

	report, err := InsertNew(context.Background(), mock, existing, []Stop{{ID: 9, Address: "D"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Plan.Stops[0].ID != 1 {
		t.Fatalf("origin displaced: first stop ID = %d", report.Plan.Stops[0].ID)
	}
}

func TestInsertNewSequentialPlacement(t *testing.T) {
	existing := []Stop{
		{ID: 1, Address: "O"},
		{ID: 2, Address: "A"},
		{ID: 3, Address: "B"},
	}
	added := []Stop{
		{ID: 9, Address: "D"},
		{ID: 10, Address: "E"},
	}

	// D lands between A and B; E lands between D and B, which only works if
	// the second insertion sees the first.
	mock := lineMock(map[string]float64{"O": 0, "A": 10, "B": 20, "D": 12, "E": 15})

	report, err := InsertNew(context.Background(), mock, existing, added)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, report.Plan, []string{"O", "A", "D", "E", "B"})
	if report.OptimizedCount != 2 {
		t.Fatalf("optimizedCount = %d, want 2", report.OptimizedCount)
	}
}

func TestInsertNewPreservesExistingOrder(t *testing.T) {
	// Existing order is deliberately not the shortest path; it must survive.
	existing := []Stop{
		{ID: 1, Address: "O"},
		{ID: 2, Address: "B"},
		{ID: 3, Address: "A"},
	}
	mock := lineMock(map[string]float64{"O": 0, "A": 10, "B": 20, "D": 30})

	report, err := InsertNew(context.Background(), mock, existing, []Stop{{ID: 9, Address: "D"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := orderOf(t, report.Plan)
	bIdx, aIdx := -1, -1
	for i, a := range got {
		switch a {
		case "B":
			bIdx = i
		case "A":
			aIdx = i
		}
	}
	if bIdx == -1 || aIdx == -1 || bIdx > aIdx {
		t.Fatalf("existing relative order changed: %v", got)
	}
}

func TestInsertNewNoNewStops(t *testing.T) {
	existing := []Stop{
		{ID: 1, Address: "O"},
		{ID: 2, Address: "B"},
		{ID: 3, Address: "A"},
	}
	mock := lineMock(map[string]float64{"O": 0, "A": 10, "B": 20})

	report, err := InsertNew(context.Background(), mock, existing, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.OptimizedCount != 0 {
		t.Fatalf("optimizedCount = %d, want 0", report.OptimizedCount)
	}
	// Current order kept untouched, aggregates recalculated against it.
	assertOrder(t, report.Plan, []string{"O", "B", "A"})
	if mock.Calls != 1 {
		t.Fatalf("directions calls = %d, want 1", mock.Calls)
	}
}

func TestInsertNewFailsAtomically(t *testing.T) {
	existing := []Stop{
		{ID: 1, Address: "O"},
		{ID: 2, Address: "A"},
	}
	boom := errors.New("boom")

	mock := directions.NewMock()
	mock.Fallback = func(addresses []string, optimize bool) (directions.Result, error) {
		return directions.Result{}, boom
	}

	_, err := InsertNew(context.Background(), mock, existing, []Stop{{ID: 9, Address: "D"}})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped boom", err)
	}
}

func TestInsertNewGapFollowsItsStop(t *testing.T) {
	existing := []Stop{
		{ID: 1, Address: "O"},
		{ID: 2, Address: "A"},
		{ID: 3, Address: "break", IsGap: true},
		{ID: 4, Address: "B"},
	}
	mock := lineMock(map[string]float64{"O": 0, "A": 10, "B": 20, "D": 11})

	report, err := InsertNew(context.Background(), mock, existing, []Stop{{ID: 9, Address: "D"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The break stays attached to A; D goes after it.
	assertOrder(t, report.Plan, []string{"O", "A", "break", "D", "B"})
}
