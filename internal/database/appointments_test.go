package database

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lumina/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newAppointment(staffID uuid.UUID, start, end, status string) *models.Appointment {
	return &models.Appointment{
		ID:          uuid.New(),
		StaffID:     staffID,
		Date:        testDate,
		StartTime:   start,
		EndTime:     end,
		Status:      status,
		ServiceName: "haircut",
		ClientName:  "Test Client",
		ClientPhone: "+15550100",
	}
}

func TestCreateAppointmentConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	staffID := uuid.New()

	first := newAppointment(staffID, "10:00", "10:30", models.StatusScheduled)
	require.NoError(t, db.CreateAppointment(ctx, first))

	t.Run("OverlappingRejected", func(t *testing.T) {
		overlapping := newAppointment(staffID, "10:15", "10:45", models.StatusScheduled)
		err := db.CreateAppointment(ctx, overlapping)
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("TouchingBoundaryAllowed", func(t *testing.T) {
		adjacent := newAppointment(staffID, "10:30", "11:00", models.StatusScheduled)
		assert.NoError(t, db.CreateAppointment(ctx, adjacent))
	})

	t.Run("OtherStaffUnaffected", func(t *testing.T) {
		other := newAppointment(uuid.New(), "10:00", "10:30", models.StatusScheduled)
		assert.NoError(t, db.CreateAppointment(ctx, other))
	})

	t.Run("CancelledDoesNotBlock", func(t *testing.T) {
		require.NoError(t, db.UpdateAppointmentStatus(ctx, first.ID, models.StatusCancelled))

		replacement := newAppointment(staffID, "10:00", "10:30", models.StatusScheduled)
		assert.NoError(t, db.CreateAppointment(ctx, replacement))
	})
}

func TestCreateAppointmentConcurrentRace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	staffID := uuid.New()

	// All workers race for the same window; the in-transaction re-check must
	// admit exactly one of them.
	const workers = 8
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.CreateAppointment(ctx, newAppointment(staffID, "10:00", "10:30", models.StatusScheduled))
		}()
	}
	wg.Wait()
	close(errs)

	var created, rejected int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrSlotTaken):
			rejected++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, rejected)

	appointments, err := db.GetActiveAppointmentsForDay(ctx, staffID, testDate)
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
}

func TestGetActiveAppointmentsForDay(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	staffID := uuid.New()

	require.NoError(t, db.CreateAppointment(ctx, newAppointment(staffID, "11:00", "11:30", models.StatusConfirmed)))
	require.NoError(t, db.CreateAppointment(ctx, newAppointment(staffID, "09:00", "09:45", models.StatusScheduled)))

	cancelled := newAppointment(staffID, "14:00", "14:30", models.StatusScheduled)
	require.NoError(t, db.CreateAppointment(ctx, cancelled))
	require.NoError(t, db.UpdateAppointmentStatus(ctx, cancelled.ID, models.StatusNoShow))

	appointments, err := db.GetActiveAppointmentsForDay(ctx, staffID, testDate)
	require.NoError(t, err)
	require.Len(t, appointments, 2)
	// Ordered by start time.
	assert.Equal(t, "09:00", appointments[0].StartTime)
	assert.Equal(t, "11:00", appointments[1].StartTime)
}

func TestRescheduleAppointment(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	staffID := uuid.New()

	appt := newAppointment(staffID, "10:00", "10:30", models.StatusScheduled)
	require.NoError(t, db.CreateAppointment(ctx, appt))

	t.Run("SelfWindowNeverConflicts", func(t *testing.T) {
		// Moving an appointment onto its own window must not be rejected.
		assert.NoError(t, db.RescheduleAppointment(ctx, appt.ID, testDate, "10:00", "10:30"))
	})

	t.Run("MoveToFreeWindow", func(t *testing.T) {
		require.NoError(t, db.RescheduleAppointment(ctx, appt.ID, testDate, "15:00", "15:30"))

		got, err := db.GetAppointment(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, "15:00", got.StartTime)
		assert.Equal(t, "15:30", got.EndTime)
	})

	t.Run("MoveOntoOccupiedWindowRejected", func(t *testing.T) {
		blocker := newAppointment(staffID, "16:00", "16:30", models.StatusScheduled)
		require.NoError(t, db.CreateAppointment(ctx, blocker))

		err := db.RescheduleAppointment(ctx, appt.ID, testDate, "16:15", "16:45")
		assert.ErrorIs(t, err, ErrSlotTaken)

		// The original window is untouched after the rejection.
		got, getErr := db.GetAppointment(ctx, appt.ID)
		require.NoError(t, getErr)
		assert.Equal(t, "15:00", got.StartTime)
	})

	t.Run("UnknownAppointment", func(t *testing.T) {
		err := db.RescheduleAppointment(ctx, uuid.New(), testDate, "09:00", "09:30")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestUpdateAppointmentStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	appt := newAppointment(uuid.New(), "10:00", "10:30", models.StatusScheduled)
	require.NoError(t, db.CreateAppointment(ctx, appt))

	assert.NoError(t, db.UpdateAppointmentStatus(ctx, appt.ID, models.StatusConfirmed))

	got, err := db.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)

	assert.Error(t, db.UpdateAppointmentStatus(ctx, appt.ID, "bogus"))
	assert.ErrorIs(t, db.UpdateAppointmentStatus(ctx, uuid.New(), models.StatusConfirmed), ErrNotFound)
}

func TestSchedules(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	staffID := uuid.New()

	t.Run("MissingRowIsNotAnError", func(t *testing.T) {
		sched, err := db.GetScheduleByDay(ctx, staffID, 0)
		assert.NoError(t, err)
		assert.Nil(t, sched)
	})

	t.Run("UpsertAndFetch", func(t *testing.T) {
		require.NoError(t, db.UpsertSchedule(ctx, &models.WeeklySchedule{
			StaffID:     staffID,
			DayOfWeek:   1,
			StartTime:   "09:00",
			EndTime:     "18:00",
			IsAvailable: true,
		}))

		sched, err := db.GetScheduleForDate(ctx, staffID, testDate)
		require.NoError(t, err)
		require.NotNil(t, sched)
		assert.Equal(t, "09:00", sched.StartTime)
		assert.True(t, sched.IsAvailable)
	})

	t.Run("UpsertReplacesSameDay", func(t *testing.T) {
		require.NoError(t, db.UpsertSchedule(ctx, &models.WeeklySchedule{
			StaffID:     staffID,
			DayOfWeek:   1,
			StartTime:   "10:00",
			EndTime:     "16:00",
			IsAvailable: false,
		}))

		schedules, err := db.ListSchedules(ctx, staffID)
		require.NoError(t, err)
		require.Len(t, schedules, 1)
		assert.Equal(t, "10:00", schedules[0].StartTime)
		assert.False(t, schedules[0].IsAvailable)
	})
}
