package execution

import (
	"errors"
	"fmt"
	"time"

	"github.com/angelaneason/routie-roo/internal/models"
)

// Status lifecycle: pending → in_progress (optional) → complete | missed.
// Transitions only move forward; a missed stop can still be completed after
// a reschedule, but nothing ever returns to pending or in_progress. A
// reschedule clears NeedsReschedule without changing the status away from
// missed.

var (
	ErrMissedReasonRequired = errors.New("execution: missed status requires a reason")
	ErrPastRescheduleDate   = errors.New("execution: reschedule date must not be in the past")
	ErrBackwardTransition   = errors.New("execution: status can only move forward")
)

func validStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusInProgress, models.StatusComplete, models.StatusMissed:
		return true
	}
	return false
}

// allowedTransition encodes the forward-only lifecycle. Re-applying the
// current status is always allowed so notes can be annotated.
func allowedTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case "", models.StatusPending:
		return true
	case models.StatusInProgress:
		return to == models.StatusComplete || to == models.StatusMissed
	case models.StatusMissed:
		return to == models.StatusComplete
	case models.StatusComplete:
		return false
	}
	return true
}

// StatusUpdate carries one requested transition.
type StatusUpdate struct {
	Status         string
	MissedReason   string
	ExecutionNotes string
}

// Apply mutates the waypoint according to the requested update. Re-applying
// the current status is allowed and acts as a notes-only annotation.
func Apply(w *models.Waypoint, update StatusUpdate, now time.Time) error {
	if !validStatus(update.Status) {
		return fmt.Errorf("execution: unknown status %q", update.Status)
	}
	if !allowedTransition(w.Status, update.Status) {
		return fmt.Errorf("%w: %s cannot become %s", ErrBackwardTransition, w.Status, update.Status)
	}

	if update.Status == models.StatusMissed && update.MissedReason == "" && w.MissedReason == "" {
		return ErrMissedReasonRequired
	}

	previous := w.Status
	w.Status = update.Status
	if update.ExecutionNotes != "" {
		w.ExecutionNotes = update.ExecutionNotes
	}

	switch update.Status {
	case models.StatusComplete:
		if w.CompletedAt == nil {
			w.CompletedAt = &now
		}
	case models.StatusMissed:
		if update.MissedReason != "" {
			w.MissedReason = update.MissedReason
		}
		if previous != models.StatusMissed {
			w.NeedsReschedule = true
		}
	}

	return nil
}

// Reschedule sets the new date and clears the needs-reschedule flag. Status
// is untouched: a rescheduled missed stop stays missed but becomes
// actionable again. Calling this on a waypoint that is not missed is
// permitted; it only records the date.
func Reschedule(w *models.Waypoint, date time.Time, now time.Time) error {
	if date.Before(now.Truncate(24 * time.Hour)) {
		return ErrPastRescheduleDate
	}

	w.RescheduledDate = &date
	w.NeedsReschedule = false
	return nil
}

// RescheduleOutcome maps a waypoint status to the outcome recorded on its
// open reschedule entries when the status changes: completing the stop
// resolves them as completed, missing it again as re_missed. Non-terminal
// statuses resolve nothing.
func RescheduleOutcome(status string) (string, bool) {
	switch status {
	case models.StatusComplete:
		return models.RescheduleOutcomeCompleted, true
	case models.StatusMissed:
		return models.RescheduleOutcomeReMissed, true
	}
	return "", false
}

// RouteComplete reports whether every non-gap waypoint has reached a
// terminal status. Routes with no routable waypoints are never complete.
func RouteComplete(waypoints []models.Waypoint) bool {
	seen := false
	for _, w := range waypoints {
		if w.IsGapStop {
			continue
		}
		seen = true
		if !w.Terminal() {
			return false
		}
	}
	return seen
}
