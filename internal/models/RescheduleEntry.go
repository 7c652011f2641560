package models

import (
	"time"

	"gorm.io/gorm"
)

// Reschedule entry outcomes.
const (
	RescheduleOutcomePending   = "pending"
	RescheduleOutcomeCompleted = "completed"
	RescheduleOutcomeReMissed  = "re_missed"
	RescheduleOutcomeCancelled = "cancelled"
)

// RescheduleEntry records one reschedule event for review. It is a read
// model; waypoint status stays authoritative.
type RescheduleEntry struct {
	gorm.Model

	WaypointID   uint       `json:"waypoint_id"`
	OriginalDate *time.Time `json:"original_date,omitempty"`
	NewDate      time.Time  `json:"new_date"`
	Outcome      string     `json:"outcome" gorm:"default:pending"`
}
