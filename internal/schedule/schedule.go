package schedule

import (
	"errors"
	"fmt"
	"time"

	"lumina/internal/models"

	"github.com/google/uuid"
)

// DefaultGranularityMinutes is the step between candidate slot start times.
const DefaultGranularityMinutes = 15

var (
	ErrInvalidDuration = errors.New("duration must be positive")
	ErrInvalidWindow   = errors.New("start must be before end")
)

// Window is a candidate or existing time interval [Start, End) on one date.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowInfo is a simplified representation for API responses.
type WindowInfo struct {
	Start string `json:"start"` // "10:00"
	End   string `json:"end"`   // "10:45"
}

// Overlaps decides half-open interval overlap between [s1,e1) and [s2,e2).
// Touching boundaries (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// HasConflict reports whether the window [start, end) overlaps any active
// appointment in the snapshot. Cancelled and no-show appointments are
// ignored, as is the appointment identified by excludeID (so a reschedule
// never conflicts with itself). Appointments with malformed times are
// skipped rather than treated as conflicts.
func HasConflict(appointments []models.Appointment, start, end time.Time, excludeID uuid.UUID) (bool, error) {
	if !start.Before(end) {
		return false, ErrInvalidWindow
	}

	for i := range appointments {
		appt := &appointments[i]
		if !appt.IsActive() {
			continue
		}
		if excludeID != uuid.Nil && appt.ID == excludeID {
			continue
		}

		s, e, err := appt.Window()
		if err != nil {
			continue
		}
		if Overlaps(start, end, s, e) {
			return true, nil
		}
	}
	return false, nil
}

// Calculator generates bookable windows for a staff member's day.
type Calculator struct {
	granularity time.Duration
}

// NewCalculator creates a calculator with the given step in minutes.
// Non-positive values fall back to the default granularity.
func NewCalculator(granularityMinutes int) *Calculator {
	if granularityMinutes <= 0 {
		granularityMinutes = DefaultGranularityMinutes
	}
	return &Calculator{granularity: time.Duration(granularityMinutes) * time.Minute}
}

// ComputeSlots returns the ordered open windows of length durationMinutes
// for one staff member on one date. A nil schedule or one with
// IsAvailable=false yields an empty result (day off), not an error.
// Candidate acceptance uses the same predicate as HasConflict, so displayed
// slots and commit-time decisions cannot diverge.
func (c *Calculator) ComputeSlots(sched *models.WeeklySchedule, appointments []models.Appointment, date time.Time, durationMinutes int) ([]Window, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	if sched == nil || !sched.IsAvailable {
		return nil, nil
	}

	openAt, err := models.ParseTimeOnDate(date, sched.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse schedule start: %w", err)
	}
	closeAt, err := models.ParseTimeOnDate(date, sched.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parse schedule end: %w", err)
	}

	duration := time.Duration(durationMinutes) * time.Minute
	var windows []Window

	for cursor := openAt; !cursor.Add(duration).After(closeAt); cursor = cursor.Add(c.granularity) {
		start := cursor
		end := cursor.Add(duration)

		conflict, err := HasConflict(appointments, start, end, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if conflict {
			continue
		}

		windows = append(windows, Window{Start: start, End: end})
	}

	return windows, nil
}

// ToWindowInfo converts windows to their API representation.
func ToWindowInfo(windows []Window) []WindowInfo {
	result := make([]WindowInfo, len(windows))
	for i, w := range windows {
		result[i] = WindowInfo{
			Start: w.Start.Format("15:04"),
			End:   w.End.Format("15:04"),
		}
	}
	return result
}
