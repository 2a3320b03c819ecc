package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestParseTimeOnDate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		got, err := ParseTimeOnDate(testDate, "09:30")
		require.NoError(t, err)
		assert.Equal(t, 9, got.Hour())
		assert.Equal(t, 30, got.Minute())
		assert.Equal(t, testDate.Day(), got.Day())
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, input := range []string{"", "9", "ab:cd", "25:00", "12:61", "-1:00"} {
			_, err := ParseTimeOnDate(testDate, input)
			assert.Error(t, err, "input %q", input)
		}
	})
}

func TestAppointment_IsActive(t *testing.T) {
	active := []string{StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted}
	for _, status := range active {
		a := &Appointment{Status: status}
		assert.True(t, a.IsActive(), "status %s", status)
	}

	for _, status := range []string{StatusCancelled, StatusNoShow} {
		a := &Appointment{Status: status}
		assert.False(t, a.IsActive(), "status %s", status)
	}
}

func TestAppointment_OverlapsWith(t *testing.T) {
	mk := func(start, end string) *Appointment {
		return &Appointment{
			ID:        uuid.New(),
			Date:      testDate,
			StartTime: start,
			EndTime:   end,
			Status:    StatusScheduled,
		}
	}

	tests := []struct {
		name     string
		a, b     *Appointment
		expected bool
	}{
		{"identical windows", mk("10:00", "10:30"), mk("10:00", "10:30"), true},
		{"partial overlap", mk("10:00", "10:30"), mk("10:15", "10:45"), true},
		{"contained", mk("09:00", "12:00"), mk("10:00", "10:30"), true},
		{"touching boundaries", mk("09:00", "09:30"), mk("09:30", "10:00"), false},
		{"disjoint", mk("09:00", "09:30"), mk("11:00", "11:30"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.OverlapsWith(tt.b))
			// Symmetric in both directions.
			assert.Equal(t, tt.expected, tt.b.OverlapsWith(tt.a))
		})
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, status := range ValidStatuses {
		assert.True(t, IsValidStatus(status))
	}
	assert.False(t, IsValidStatus("pending"))
	assert.False(t, IsValidStatus(""))
}
