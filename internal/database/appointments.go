package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lumina/internal/models"
	"lumina/internal/schedule"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetActiveAppointmentsForDay returns non-cancelled, non-no-show appointments
// for one staff member on one calendar date, ordered by start time.
func (db *DB) GetActiveAppointmentsForDay(ctx context.Context, staffID uuid.UUID, date time.Time) ([]models.Appointment, error) {
	return activeAppointmentsForDay(ctx, db.DB, staffID, date)
}

func activeAppointmentsForDay(ctx context.Context, q querier, staffID uuid.UUID, date time.Time) ([]models.Appointment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, staff_id, date, start_time, end_time, status,
		       service_name, client_name, client_phone, notes, created_at, updated_at
		FROM appointments
		WHERE staff_id = ? AND date = ?
		AND status NOT IN ('cancelled', 'no_show')
		ORDER BY start_time`,
		staffID.String(), date.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}
	return appointments, rows.Err()
}

// GetAppointment returns one appointment by id, or ErrNotFound.
func (db *DB) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return getAppointment(ctx, db.DB, id)
}

func getAppointment(ctx context.Context, q querier, id uuid.UUID) (*models.Appointment, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, staff_id, date, start_time, end_time, status,
		       service_name, client_name, client_phone, notes, created_at, updated_at
		FROM appointments
		WHERE id = ?
		LIMIT 1`,
		id.String(),
	)

	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// CreateAppointment inserts a new appointment after re-running the conflict
// check against the then-current snapshot, inside one immediate transaction.
// Returns ErrSlotTaken when the window was claimed between the display-time
// availability fetch and this commit.
func (db *DB) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a == nil {
		return fmt.Errorf("appointment is nil")
	}

	start, end, err := a.Window()
	if err != nil {
		return fmt.Errorf("appointment window: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	existing, err := activeAppointmentsForDay(ctx, tx, a.StaffID, a.Date)
	if err != nil {
		return err
	}

	conflict, err := schedule.HasConflict(existing, start, end, uuid.Nil)
	if err != nil {
		return err
	}
	if conflict {
		return ErrSlotTaken
	}

	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments (
			id, staff_id, date, start_time, end_time, status,
			service_name, client_name, client_phone, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.StaffID.String(), a.Date.Format(dateLayout),
		a.StartTime, a.EndTime, a.Status,
		a.ServiceName, a.ClientName, a.ClientPhone, a.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	return tx.Commit()
}

// RescheduleAppointment moves an appointment to a new date and window. The
// conflict re-check excludes the appointment itself, so moving within or
// adjacent to its own window is never self-conflicting.
func (db *DB) RescheduleAppointment(ctx context.Context, id uuid.UUID, date time.Time, startTime, endTime string) error {
	start, err := models.ParseTimeOnDate(date, startTime)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := models.ParseTimeOnDate(date, endTime)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current, err := getAppointment(ctx, tx, id)
	if err != nil {
		return err
	}

	existing, err := activeAppointmentsForDay(ctx, tx, current.StaffID, date)
	if err != nil {
		return err
	}

	conflict, err := schedule.HasConflict(existing, start, end, id)
	if err != nil {
		return err
	}
	if conflict {
		return ErrSlotTaken
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE appointments
		SET date = ?, start_time = ?, end_time = ?, updated_at = ?
		WHERE id = ?`,
		date.Format(dateLayout), startTime, endTime, time.Now(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}

	return tx.Commit()
}

// UpdateAppointmentStatus transitions an appointment to a new status.
func (db *DB) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !models.IsValidStatus(status) {
		return fmt.Errorf("invalid status: %s", status)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE appointments
		SET status = ?, updated_at = ?
		WHERE id = ?`,
		status, time.Now(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var a models.Appointment
	var id, staffID, dateStr string
	if err := row.Scan(
		&id, &staffID, &dateStr, &a.StartTime, &a.EndTime, &a.Status,
		&a.ServiceName, &a.ClientName, &a.ClientPhone, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if a.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse appointment id: %w", err)
	}
	if a.StaffID, err = uuid.Parse(staffID); err != nil {
		return nil, fmt.Errorf("parse staff id: %w", err)
	}
	if a.Date, err = time.Parse(dateLayout, dateStr); err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	return &a, nil
}
