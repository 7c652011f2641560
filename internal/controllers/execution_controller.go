package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/angelaneason/routie-roo/internal/config"
	"github.com/angelaneason/routie-roo/internal/execution"
	"github.com/angelaneason/routie-roo/internal/models"
	"github.com/angelaneason/routie-roo/internal/waypoints"
)

type statusInput struct {
	Status         string `json:"status" binding:"required"`
	MissedReason   string `json:"missed_reason"`
	ExecutionNotes string `json:"execution_notes"`
}

type rescheduleInput struct {
	RescheduledDate time.Time `json:"rescheduled_date" binding:"required"`
}

// persistStatusUpdate saves an already-transitioned waypoint, resolves its
// open reschedule entries, and derives route-level completion, all inside a
// single transaction. Completion is stamped exactly once, the first time
// every non-gap waypoint is terminal.
func persistStatusUpdate(tx *gorm.DB, wp *models.Waypoint, route *models.Route, previous string, now time.Time) error {
	if err := tx.Save(wp).Error; err != nil {
		return err
	}

	if wp.Status != previous {
		if outcome, ok := execution.RescheduleOutcome(wp.Status); ok {
			if err := tx.Model(&models.RescheduleEntry{}).
				Where("waypoint_id = ? AND outcome = ?", wp.ID, models.RescheduleOutcomePending).
				Update("outcome", outcome).Error; err != nil {
				return err
			}
		}
	}

	if route.CompletedAt == nil {
		ws, err := waypoints.ForRoute(tx, route.ID)
		if err != nil {
			return err
		}
		if execution.RouteComplete(ws) {
			route.CompletedAt = &now
			if err := tx.Model(route).Update("completed_at", now).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// updateStatus is shared by the owner and share-token entry points.
func updateStatus(c *gin.Context, wp models.Waypoint, route models.Route) {
	var input statusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	previous := wp.Status
	update := execution.StatusUpdate{
		Status:         input.Status,
		MissedReason:   input.MissedReason,
		ExecutionNotes: input.ExecutionNotes,
	}
	if err := execution.Apply(&wp, update, now); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	if err := persistStatusUpdate(tx, &wp, &route, previous, now); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"waypoint": wp})
}

// reschedule is shared by the owner and share-token entry points. It applies
// the new date, clears the needs-reschedule flag, and appends a reschedule
// history entry in one transaction. An earlier entry still pending is
// superseded and marked cancelled. Status is left untouched.
func reschedule(c *gin.Context, wp models.Waypoint) {
	var input rescheduleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	originalDate := wp.RescheduledDate
	if err := execution.Reschedule(&wp, input.RescheduledDate, time.Now().UTC()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, execution.ErrPastRescheduleDate) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	if err := tx.Save(&wp).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Model(&models.RescheduleEntry{}).
		Where("waypoint_id = ? AND outcome = ?", wp.ID, models.RescheduleOutcomePending).
		Update("outcome", models.RescheduleOutcomeCancelled).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	entry := models.RescheduleEntry{
		WaypointID:   wp.ID,
		OriginalDate: originalDate,
		NewDate:      input.RescheduledDate,
		Outcome:      models.RescheduleOutcomePending,
	}
	if err := tx.Create(&entry).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	logrus.WithField("waypoint_id", wp.ID).Info("waypoint rescheduled")
	c.JSON(http.StatusOK, gin.H{"waypoint": wp})
}

// UpdateWaypointStatus transitions a waypoint's execution status for the
// route owner.
func UpdateWaypointStatus(c *gin.Context) {
	wpID, ok := parseID(c, "id")
	if !ok {
		return
	}
	wp, route, ok := ownedWaypoint(c, wpID)
	if !ok {
		return
	}
	updateStatus(c, wp, route)
}

// RescheduleWaypoint sets a new execution date on a missed stop for the
// route owner.
func RescheduleWaypoint(c *gin.Context) {
	wpID, ok := parseID(c, "id")
	if !ok {
		return
	}
	wp, _, ok := ownedWaypoint(c, wpID)
	if !ok {
		return
	}
	reschedule(c, wp)
}

// ListReschedules returns the reschedule history for one waypoint.
func ListReschedules(c *gin.Context) {
	wpID, ok := parseID(c, "id")
	if !ok {
		return
	}
	wp, _, ok := ownedWaypoint(c, wpID)
	if !ok {
		return
	}

	var entries []models.RescheduleEntry
	config.DB.Where("waypoint_id = ?", wp.ID).Order("created_at desc").Find(&entries)
	c.JSON(http.StatusOK, gin.H{"reschedules": entries})
}
