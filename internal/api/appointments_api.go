package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lumina/internal/metrics"
	"lumina/internal/models"
	"lumina/internal/schedule"
	"lumina/internal/service"

	"github.com/google/uuid"
)

// ConflictCheckRequest is the request body for POST /api/conflict-check.
type ConflictCheckRequest struct {
	StaffID              string `json:"staff_id"`
	Date                 string `json:"date"`       // Format: YYYY-MM-DD
	StartTime            string `json:"start_time"` // Format: HH:MM
	EndTime              string `json:"end_time"`   // Format: HH:MM
	ExcludeAppointmentID string `json:"exclude_appointment_id,omitempty"`
}

// CreateAppointmentRequest is the request body for POST /api/appointments.
type CreateAppointmentRequest struct {
	StaffID     string `json:"staff_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	ServiceName string `json:"service_name,omitempty"`
	ClientName  string `json:"client_name,omitempty"`
	ClientPhone string `json:"client_phone,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// RescheduleRequest is the request body for POST /api/appointments/reschedule.
type RescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

// CancelRequest is the request body for POST /api/appointments/cancel.
type CancelRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// AppointmentResponse is the success/failure envelope for appointment writes.
type AppointmentResponse struct {
	Success       bool   `json:"success"`
	AppointmentID string `json:"appointment_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

// handleConflictCheck runs the overlap decision for a proposed window.
// POST /api/conflict-check
func (s *HTTPServer) handleConflictCheck(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("conflict_check")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req ConflictCheckRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff_id")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	excludeID := uuid.Nil
	if req.ExcludeAppointmentID != "" {
		if excludeID, err = uuid.Parse(req.ExcludeAppointmentID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid exclude_appointment_id")
			return
		}
	}

	if _, err := models.ParseTimeOnDate(date, req.StartTime); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time; expected HH:MM")
		return
	}
	if _, err := models.ParseTimeOnDate(date, req.EndTime); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_time; expected HH:MM")
		return
	}

	conflict, err := s.booking.CheckConflict(r.Context(), staffID, date, req.StartTime, req.EndTime, excludeID)
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidWindow) {
			writeError(w, http.StatusBadRequest, "start must be before end")
			return
		}
		s.logger.Error().Err(err).Msg("conflict check failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"conflict": conflict})
}

// handleCreateAppointment books a new appointment.
// POST /api/appointments
func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_appointment")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateAppointmentRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid JSON body"})
		return
	}

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid staff_id"})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid date format; expected YYYY-MM-DD"})
		return
	}

	if _, err := models.ParseTimeOnDate(date, req.StartTime); err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid start_time; expected HH:MM"})
		return
	}
	if _, err := models.ParseTimeOnDate(date, req.EndTime); err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid end_time; expected HH:MM"})
		return
	}

	appt := &models.Appointment{
		StaffID:     staffID,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ServiceName: req.ServiceName,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Notes:       req.Notes,
	}

	if err := s.booking.CreateAppointment(r.Context(), appt); err != nil {
		s.writeAppointmentError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AppointmentResponse{
		Success:       true,
		AppointmentID: appt.ID.String(),
	})
}

// handleReschedule moves an appointment to a new window.
// POST /api/appointments/reschedule
func (s *HTTPServer) handleReschedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reschedule_appointment")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req RescheduleRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid JSON body"})
		return
	}

	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid appointment_id"})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid date format; expected YYYY-MM-DD"})
		return
	}

	if _, err := models.ParseTimeOnDate(date, req.StartTime); err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid start_time; expected HH:MM"})
		return
	}
	if _, err := models.ParseTimeOnDate(date, req.EndTime); err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid end_time; expected HH:MM"})
		return
	}

	if err := s.booking.RescheduleAppointment(r.Context(), id, date, req.StartTime, req.EndTime); err != nil {
		s.writeAppointmentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AppointmentResponse{Success: true, AppointmentID: id.String()})
}

// handleCancel marks an appointment cancelled.
// POST /api/appointments/cancel
func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_appointment")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CancelRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid JSON body"})
		return
	}

	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "invalid appointment_id"})
		return
	}

	if err := s.booking.CancelAppointment(r.Context(), id); err != nil {
		s.writeAppointmentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AppointmentResponse{Success: true, AppointmentID: id.String()})
}

func (s *HTTPServer) writeAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSlotTaken):
		// Valid rejection: the window was claimed between slot display and
		// submission. The client should re-fetch availability.
		writeJSON(w, http.StatusConflict, AppointmentResponse{
			Success: false,
			Error:   "slot no longer available; please choose another",
		})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, AppointmentResponse{Success: false, Error: "appointment not found"})
	case errors.Is(err, schedule.ErrInvalidWindow):
		writeJSON(w, http.StatusBadRequest, AppointmentResponse{Success: false, Error: "start must be before end"})
	default:
		s.logger.Error().Err(err).Msg("appointment write failed")
		writeJSON(w, http.StatusInternalServerError, AppointmentResponse{Success: false, Error: "internal error"})
	}
}
