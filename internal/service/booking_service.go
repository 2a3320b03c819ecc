package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lumina/internal/cache"
	"lumina/internal/database"
	"lumina/internal/events"
	"lumina/internal/metrics"
	"lumina/internal/models"
	"lumina/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSlotTaken mirrors the storage-level rejection so API callers only deal
// with service errors.
var ErrSlotTaken = database.ErrSlotTaken

var ErrNotFound = database.ErrNotFound

// Repository is the persistence surface the booking service depends on.
type Repository interface {
	GetScheduleForDate(ctx context.Context, staffID uuid.UUID, date time.Time) (*models.WeeklySchedule, error)
	GetActiveAppointmentsForDay(ctx context.Context, staffID uuid.UUID, date time.Time) ([]models.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	RescheduleAppointment(ctx context.Context, id uuid.UUID, date time.Time, startTime, endTime string) error
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status string) error
}

// EventPublisher publishes appointment lifecycle events.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// BookingService orchestrates availability computation and appointment writes.
type BookingService struct {
	repo   Repository
	bus    EventPublisher
	cache  *cache.AvailabilityCache
	calc   *schedule.Calculator
	logger *zerolog.Logger
}

// NewBookingService creates the service. The cache may be nil.
func NewBookingService(repo Repository, bus EventPublisher, availCache *cache.AvailabilityCache, granularityMinutes int, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:   repo,
		bus:    bus,
		cache:  availCache,
		calc:   schedule.NewCalculator(granularityMinutes),
		logger: logger,
	}
}

// GetAvailableSlots returns the ordered open windows for a staff member on a
// date. An empty result is a normal outcome (day off, fully booked, or the
// service is longer than the remaining hours), never an error.
func (s *BookingService) GetAvailableSlots(ctx context.Context, staffID uuid.UUID, date time.Time, durationMinutes int) ([]schedule.WindowInfo, error) {
	if durationMinutes <= 0 {
		return nil, schedule.ErrInvalidDuration
	}

	date = models.DateOnly(date)
	if cached, ok := s.cache.Get(ctx, staffID, date, durationMinutes); ok {
		return cached, nil
	}

	sched, err := s.repo.GetScheduleForDate(ctx, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}

	var appointments []models.Appointment
	if sched != nil && sched.IsAvailable {
		appointments, err = s.repo.GetActiveAppointmentsForDay(ctx, staffID, date)
		if err != nil {
			return nil, fmt.Errorf("fetch appointments: %w", err)
		}
	}

	windows, err := s.calc.ComputeSlots(sched, appointments, date, durationMinutes)
	if err != nil {
		return nil, err
	}
	metrics.IncSlotsComputed()

	infos := schedule.ToWindowInfo(windows)
	s.cache.Set(ctx, staffID, date, durationMinutes, infos)
	return infos, nil
}

// CheckConflict decides whether [startTime, endTime) on the given date
// overlaps any active appointment for the staff member. excludeID may be
// uuid.Nil. This is the display-time check; the write path re-runs the same
// predicate inside the storage transaction.
func (s *BookingService) CheckConflict(ctx context.Context, staffID uuid.UUID, date time.Time, startTime, endTime string, excludeID uuid.UUID) (bool, error) {
	date = models.DateOnly(date)

	start, err := models.ParseTimeOnDate(date, startTime)
	if err != nil {
		return false, fmt.Errorf("start time: %w", err)
	}
	end, err := models.ParseTimeOnDate(date, endTime)
	if err != nil {
		return false, fmt.Errorf("end time: %w", err)
	}
	if !start.Before(end) {
		return false, schedule.ErrInvalidWindow
	}

	appointments, err := s.repo.GetActiveAppointmentsForDay(ctx, staffID, date)
	if err != nil {
		return false, fmt.Errorf("fetch appointments: %w", err)
	}

	return schedule.HasConflict(appointments, start, end, excludeID)
}

// CreateAppointment books a new appointment. The storage layer re-runs the
// conflict check atomically; ErrSlotTaken means the window was claimed since
// the client last saw availability and the caller should re-fetch slots.
func (s *BookingService) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a == nil {
		return fmt.Errorf("appointment is nil")
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.StatusScheduled
	}
	if !models.IsValidStatus(a.Status) {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	a.Date = models.DateOnly(a.Date)

	start, end, err := a.Window()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return schedule.ErrInvalidWindow
	}

	if err := s.repo.CreateAppointment(ctx, a); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.IncConflictRejection()
			s.publish(events.BookingRejected, a)
			s.logger.Info().
				Str("staff_id", a.StaffID.String()).
				Str("date", a.Date.Format("2006-01-02")).
				Str("window", a.StartTime+"-"+a.EndTime).
				Msg("booking rejected: slot no longer available")
		}
		return err
	}

	metrics.IncAppointmentCreated(a.Status)
	s.cache.InvalidateDay(ctx, a.StaffID, a.Date)
	s.publish(events.AppointmentCreated, a)

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("staff_id", a.StaffID.String()).
		Str("date", a.Date.Format("2006-01-02")).
		Str("window", a.StartTime+"-"+a.EndTime).
		Msg("appointment created")
	return nil
}

// RescheduleAppointment moves an existing appointment to a new window.
func (s *BookingService) RescheduleAppointment(ctx context.Context, id uuid.UUID, date time.Time, startTime, endTime string) error {
	date = models.DateOnly(date)

	start, err := models.ParseTimeOnDate(date, startTime)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := models.ParseTimeOnDate(date, endTime)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}
	if !start.Before(end) {
		return schedule.ErrInvalidWindow
	}

	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.RescheduleAppointment(ctx, id, date, startTime, endTime); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.IncConflictRejection()
			s.logger.Info().
				Str("appointment_id", id.String()).
				Msg("reschedule rejected: slot no longer available")
		}
		return err
	}

	s.cache.InvalidateDay(ctx, current.StaffID, current.Date)
	s.cache.InvalidateDay(ctx, current.StaffID, date)
	s.publish(events.AppointmentRescheduled, map[string]any{
		"appointment_id": id,
		"date":           date.Format("2006-01-02"),
		"start_time":     startTime,
		"end_time":       endTime,
	})

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("date", date.Format("2006-01-02")).
		Str("window", startTime+"-"+endTime).
		Msg("appointment rescheduled")
	return nil
}

// CancelAppointment marks an appointment cancelled, freeing its window.
func (s *BookingService) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	current, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateAppointmentStatus(ctx, id, models.StatusCancelled); err != nil {
		return err
	}

	s.cache.InvalidateDay(ctx, current.StaffID, current.Date)
	s.publish(events.AppointmentCancelled, current)

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")
	return nil
}

// GetAppointment returns one appointment by id.
func (s *BookingService) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

// DaySheet returns the active appointments for a staff-day, for reporting.
func (s *BookingService) DaySheet(ctx context.Context, staffID uuid.UUID, date time.Time) ([]models.Appointment, error) {
	return s.repo.GetActiveAppointmentsForDay(ctx, staffID, models.DateOnly(date))
}

func (s *BookingService) publish(eventType string, payload interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}
