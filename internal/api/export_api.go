package api

import (
	"fmt"
	"net/http"
	"time"

	"lumina/internal/export"
	"lumina/internal/metrics"

	"github.com/google/uuid"
)

// handleExportDaySheet returns a staff member's day schedule as an Excel file.
// GET /api/schedule/export?staff_id=...&date=YYYY-MM-DD
func (s *HTTPServer) handleExportDaySheet(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_day_sheet")
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

	appointments, err := s.booking.DaySheet(r.Context(), staffID, date)
	if err != nil {
		s.logger.Error().Err(err).Msg("day sheet fetch failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	filename := fmt.Sprintf("schedule_%s_%s.xlsx", staffID, date.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteDaySheet(w, date, appointments); err != nil {
		s.logger.Error().Err(err).Msg("day sheet export failed")
	}
}
