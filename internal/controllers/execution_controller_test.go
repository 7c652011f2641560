package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelaneason/routie-roo/internal/config"
	"github.com/angelaneason/routie-roo/internal/execution"
	"github.com/angelaneason/routie-roo/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Route{}, &models.Waypoint{}, &models.RescheduleEntry{}); err != nil {
		t.Fatalf("migrate test schema: %v", err)
	}
	return db
}

func seedWaypoint(t *testing.T, db *gorm.DB, wp *models.Waypoint) models.Route {
	t.Helper()
	route := models.Route{Name: "deliveries", UserID: 1}
	if err := db.Create(&route).Error; err != nil {
		t.Fatalf("create route: %v", err)
	}
	wp.RouteID = route.ID
	if err := db.Create(wp).Error; err != nil {
		t.Fatalf("create waypoint: %v", err)
	}
	return route
}

func TestStatusUpdateResolvesRescheduleAsCompleted(t *testing.T) {
	db := testDB(t)
	wp := models.Waypoint{Position: 0, Address: "A", Status: models.StatusMissed, MissedReason: "not home"}
	route := seedWaypoint(t, db, &wp)

	entry := models.RescheduleEntry{WaypointID: wp.ID, NewDate: time.Now().Add(24 * time.Hour), Outcome: models.RescheduleOutcomePending}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	now := time.Now().UTC()
	previous := wp.Status
	if err := execution.Apply(&wp, execution.StatusUpdate{Status: models.StatusComplete}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := persistStatusUpdate(db, &wp, &route, previous, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got models.RescheduleEntry
	if err := db.First(&got, entry.ID).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if got.Outcome != models.RescheduleOutcomeCompleted {
		t.Fatalf("outcome = %q, want completed", got.Outcome)
	}
}

func TestStatusUpdateResolvesRescheduleAsReMissed(t *testing.T) {
	db := testDB(t)
	// A pending stop that was rescheduled in advance and then missed anyway.
	wp := models.Waypoint{Position: 0, Address: "A", Status: models.StatusPending}
	route := seedWaypoint(t, db, &wp)

	entry := models.RescheduleEntry{WaypointID: wp.ID, NewDate: time.Now().Add(24 * time.Hour), Outcome: models.RescheduleOutcomePending}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	now := time.Now().UTC()
	previous := wp.Status
	if err := execution.Apply(&wp, execution.StatusUpdate{Status: models.StatusMissed, MissedReason: "closed"}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := persistStatusUpdate(db, &wp, &route, previous, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got models.RescheduleEntry
	if err := db.First(&got, entry.ID).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if got.Outcome != models.RescheduleOutcomeReMissed {
		t.Fatalf("outcome = %q, want re_missed", got.Outcome)
	}
}

func TestStatusAnnotationKeepsReschedulePending(t *testing.T) {
	db := testDB(t)
	wp := models.Waypoint{Position: 0, Address: "A", Status: models.StatusMissed, MissedReason: "not home"}
	route := seedWaypoint(t, db, &wp)

	entry := models.RescheduleEntry{WaypointID: wp.ID, NewDate: time.Now().Add(24 * time.Hour), Outcome: models.RescheduleOutcomePending}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	now := time.Now().UTC()
	previous := wp.Status
	if err := execution.Apply(&wp, execution.StatusUpdate{Status: models.StatusMissed, ExecutionNotes: "gate code 4411"}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := persistStatusUpdate(db, &wp, &route, previous, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got models.RescheduleEntry
	if err := db.First(&got, entry.ID).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if got.Outcome != models.RescheduleOutcomePending {
		t.Fatalf("outcome = %q, a notes-only annotation must not resolve it", got.Outcome)
	}
}

func TestRescheduleSupersedesPendingEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testDB(t)
	config.DB = db

	wp := models.Waypoint{Position: 0, Address: "A", Status: models.StatusMissed, MissedReason: "not home", NeedsReschedule: true}
	seedWaypoint(t, db, &wp)

	stale := models.RescheduleEntry{WaypointID: wp.ID, NewDate: time.Now().Add(24 * time.Hour), Outcome: models.RescheduleOutcomePending}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatalf("create entry: %v", err)
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"rescheduled_date":"2030-01-02T00:00:00Z"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	reschedule(c, wp)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got models.RescheduleEntry
	if err := db.First(&got, stale.ID).Error; err != nil {
		t.Fatalf("reload entry: %v", err)
	}
	if got.Outcome != models.RescheduleOutcomeCancelled {
		t.Fatalf("outcome = %q, superseded entry must be cancelled", got.Outcome)
	}

	var open []models.RescheduleEntry
	if err := db.Where("waypoint_id = ? AND outcome = ?", wp.ID, models.RescheduleOutcomePending).Find(&open).Error; err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("pending entries = %d, want only the new one", len(open))
	}
	if want := time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC); !open[0].NewDate.Equal(want) {
		t.Fatalf("new date = %v, want %v", open[0].NewDate, want)
	}
}
