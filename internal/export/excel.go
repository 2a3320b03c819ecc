package export

import (
	"fmt"
	"io"
	"time"

	"lumina/internal/models"

	"github.com/xuri/excelize/v2"
)

var daySheetColumns = []string{"Start", "End", "Service", "Client", "Phone", "Status", "Notes"}

// WriteDaySheet writes one staff member's appointments for a date as an
// Excel sheet. Appointments are expected pre-sorted by start time.
func WriteDaySheet(w io.Writer, date time.Time, appointments []models.Appointment) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := date.Format("2006-01-02")
	// Sheet names are capped at 31 chars by the format.
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	f.SetSheetName("Sheet1", sheet)

	for i, col := range daySheetColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(daySheetColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for row, a := range appointments {
		values := []any{a.StartTime, a.EndTime, a.ServiceName, a.ClientName, a.ClientPhone, a.Status, a.Notes}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row+1, err)
			}
		}
	}

	return f.Write(w)
}
