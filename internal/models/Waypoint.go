package models

import (
	"time"

	"gorm.io/gorm"
)

// Waypoint statuses. Transitions are guarded in internal/execution.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusMissed     = "missed"
)

// Waypoint is one stop within a route. Position defines visiting order and is
// a contiguous 0-based permutation within the route after any successful
// mutation; the waypoint at position 0 is the fixed origin and never moves.
type Waypoint struct {
	gorm.Model

	RouteID  uint   `json:"route_id"`
	Position int    `json:"position"`
	Address  string `json:"address" binding:"required"`

	ContactName string `json:"contact_name"`

	// Populated from the directions service's per-leg result.
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	Status         string     `json:"status" gorm:"default:pending"`
	MissedReason   string     `json:"missed_reason"`
	ExecutionNotes string     `json:"execution_notes"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// A missed stop starts needing a reschedule; rescheduling clears the flag
	// without changing status away from missed.
	NeedsReschedule bool       `json:"needs_reschedule"`
	RescheduledDate *time.Time `json:"rescheduled_date,omitempty"`

	// Cosmetic classification
	StopType string `json:"stop_type"`
	Color    string `json:"color"`

	// Gap stops are non-routable placeholders for breaks; they are excluded
	// from directions calls and from route completion derivation.
	IsGapStop bool `json:"is_gap_stop"`

	// Set when the waypoint is added after the route's last optimization and
	// cleared when a re-optimize places it.
	NewSinceOptimization bool `json:"new_since_optimization"`
}

// Terminal reports whether the waypoint has reached a terminal status.
func (w Waypoint) Terminal() bool {
	return w.Status == StatusComplete || w.Status == StatusMissed
}
