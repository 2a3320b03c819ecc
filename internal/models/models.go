package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no_show"
)

// ValidStatuses lists every status an appointment may hold.
var ValidStatuses = []string{
	StatusScheduled, StatusConfirmed, StatusInProgress,
	StatusCompleted, StatusCancelled, StatusNoShow,
}

// IsValidStatus reports whether s is a known appointment status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Appointment represents a booked service for one staff member.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	StaffID     uuid.UUID `json:"staff_id"`
	Date        time.Time `json:"date"`       // calendar day, time component ignored
	StartTime   string    `json:"start_time"` // "HH:MM"
	EndTime     string    `json:"end_time"`   // "HH:MM"
	Status      string    `json:"status"`
	ServiceName string    `json:"service_name"`
	ClientName  string    `json:"client_name"`
	ClientPhone string    `json:"client_phone"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsActive reports whether the appointment occupies its time window.
// Cancelled and no-show appointments free the slot.
func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled && a.Status != StatusNoShow
}

// Window returns the appointment's start and end anchored on its date.
func (a *Appointment) Window() (start, end time.Time, err error) {
	start, err = ParseTimeOnDate(a.Date, a.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start time: %w", err)
	}
	end, err = ParseTimeOnDate(a.Date, a.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end time: %w", err)
	}
	return start, end, nil
}

// OverlapsWith checks if this appointment's window overlaps another's.
// Uses half-open interval [start, end) semantics - end boundary is exclusive.
func (a *Appointment) OverlapsWith(other *Appointment) bool {
	s1, e1, err := a.Window()
	if err != nil {
		return false
	}
	s2, e2, err := other.Window()
	if err != nil {
		return false
	}
	return s1.Before(e2) && s2.Before(e1)
}

// WeeklySchedule holds one staff member's working hours for a day of week.
// At most one row exists per (staff, day_of_week) pair.
type WeeklySchedule struct {
	ID          int64     `json:"id"`
	StaffID     uuid.UUID `json:"staff_id"`
	DayOfWeek   int       `json:"day_of_week"` // 0-6 (Sunday-Saturday)
	StartTime   string    `json:"start_time"`  // "09:00"
	EndTime     string    `json:"end_time"`    // "18:00"
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ParseTimeOnDate combines a "HH:MM" time-of-day string with a calendar date.
func ParseTimeOnDate(date time.Time, timeStr string) (time.Time, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) < 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %s", timeStr)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour: %w", err)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute: %w", err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %s", timeStr)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// DateOnly truncates a time to its calendar day in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
