package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lumina/internal/models"

	"github.com/google/uuid"
)

// GetScheduleByDay returns the weekly schedule row for a staff member and
// day of week (0=Sunday..6=Saturday). A missing row is not an error: the
// staff member simply does not work that day, and nil is returned.
func (db *DB) GetScheduleByDay(ctx context.Context, staffID uuid.UUID, dayOfWeek int) (*models.WeeklySchedule, error) {
	var s models.WeeklySchedule
	var sid string
	err := db.QueryRowContext(ctx, `
		SELECT id, staff_id, day_of_week, start_time, end_time, is_available, created_at, updated_at
		FROM staff_schedules
		WHERE staff_id = ? AND day_of_week = ?
		LIMIT 1`,
		staffID.String(), dayOfWeek,
	).Scan(&s.ID, &sid, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if s.StaffID, err = uuid.Parse(sid); err != nil {
		return nil, fmt.Errorf("parse staff id: %w", err)
	}
	return &s, nil
}

// GetScheduleForDate resolves the weekly schedule effective on a calendar date.
func (db *DB) GetScheduleForDate(ctx context.Context, staffID uuid.UUID, date time.Time) (*models.WeeklySchedule, error) {
	return db.GetScheduleByDay(ctx, staffID, int(date.Weekday()))
}

// UpsertSchedule creates or replaces the schedule row for (staff, day_of_week).
// Schedule rows are owned by the staff-management side of the application;
// the scheduler itself only reads them.
func (db *DB) UpsertSchedule(ctx context.Context, s *models.WeeklySchedule) error {
	if s == nil {
		return fmt.Errorf("schedule is nil")
	}

	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO staff_schedules (staff_id, day_of_week, start_time, end_time, is_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(staff_id, day_of_week) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			is_available = excluded.is_available,
			updated_at = excluded.updated_at`,
		s.StaffID.String(), s.DayOfWeek, s.StartTime, s.EndTime, s.IsAvailable, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// ListSchedules returns all schedule rows for a staff member ordered by day.
func (db *DB) ListSchedules(ctx context.Context, staffID uuid.UUID) ([]models.WeeklySchedule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, staff_id, day_of_week, start_time, end_time, is_available, created_at, updated_at
		FROM staff_schedules
		WHERE staff_id = ?
		ORDER BY day_of_week`,
		staffID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.WeeklySchedule
	for rows.Next() {
		var s models.WeeklySchedule
		var sid string
		if err := rows.Scan(&s.ID, &sid, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if s.StaffID, err = uuid.Parse(sid); err != nil {
			return nil, fmt.Errorf("parse staff id: %w", err)
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}
