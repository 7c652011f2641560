package models

import (
	"time"

	"gorm.io/gorm"
)

// Route is a named, owned, shareable collection of waypoints.
// TotalDistanceMeters and TotalDurationSeconds are always derived from the
// current waypoint order via the directions service, never hand-edited.
type Route struct {
	gorm.Model

	Name   string `json:"name" binding:"required"`
	Notes  string `json:"notes"`
	UserID uint   `json:"user_id"`

	TotalDistanceMeters  int `json:"total_distance_meters"`
	TotalDurationSeconds int `json:"total_duration_seconds"`

	// Optimized records whether full optimization was requested at creation.
	Optimized bool `json:"optimized"`
	Archived  bool `json:"archived"`

	// CompletedAt is set exactly once, the first time every non-gap waypoint
	// reaches a terminal status. It is never unset automatically.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Share-link visibility. ShareToken is nil while sharing is disabled.
	Public     bool    `json:"public"`
	ShareToken *string `json:"share_token,omitempty" gorm:"uniqueIndex"`

	// Path geometry stored as a WKB LINESTRING built from the per-leg start
	// coordinates returned by the directions service.
	Path []byte `json:"-" gorm:"type:bytea"`

	// Associations
	Waypoints []Waypoint `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"waypoints,omitempty"`
}
