package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"lumina/internal/metrics"
	"lumina/internal/models"
	"lumina/internal/schedule"

	"github.com/google/uuid"
)

// BookingService is the scheduling surface the API exposes.
type BookingService interface {
	GetAvailableSlots(ctx context.Context, staffID uuid.UUID, date time.Time, durationMinutes int) ([]schedule.WindowInfo, error)
	CheckConflict(ctx context.Context, staffID uuid.UUID, date time.Time, startTime, endTime string, excludeID uuid.UUID) (bool, error)
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	RescheduleAppointment(ctx context.Context, id uuid.UUID, date time.Time, startTime, endTime string) error
	CancelAppointment(ctx context.Context, id uuid.UUID) error
	DaySheet(ctx context.Context, staffID uuid.UUID, date time.Time) ([]models.Appointment, error)
}

// AvailabilityResponse is the response for GET /api/availability.
type AvailabilityResponse struct {
	StaffID  string                `json:"staff_id"`
	Date     string                `json:"date"`
	Duration int                   `json:"duration_minutes"`
	Slots    []schedule.WindowInfo `json:"slots"`
}

// handleAvailability returns open windows for one staff member and date.
// GET /api/availability?staff_id=...&date=YYYY-MM-DD&duration=45
func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	staffID, err := uuid.Parse(r.URL.Query().Get("staff_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff_id")
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid duration; expected minutes")
		return
	}

	slots, err := s.booking.GetAvailableSlots(r.Context(), staffID, date, duration)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidDuration) {
			writeError(w, http.StatusBadRequest, "duration must be positive")
			return
		}
		s.logger.Error().Err(err).Msg("availability lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if slots == nil {
		slots = []schedule.WindowInfo{}
	}
	writeJSON(w, http.StatusOK, AvailabilityResponse{
		StaffID:  staffID.String(),
		Date:     date.Format("2006-01-02"),
		Duration: duration,
		Slots:    slots,
	})
}
