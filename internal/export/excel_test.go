package export

import (
	"bytes"
	"testing"
	"time"

	"lumina/internal/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

func TestWriteDaySheet(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	appointments := []models.Appointment{
		{
			ID:          uuid.New(),
			Date:        date,
			StartTime:   "09:00",
			EndTime:     "09:45",
			Status:      models.StatusConfirmed,
			ServiceName: "haircut",
			ClientName:  "Alex",
			ClientPhone: "+15550100",
		},
		{
			ID:          uuid.New(),
			Date:        date,
			StartTime:   "10:00",
			EndTime:     "11:00",
			Status:      models.StatusScheduled,
			ServiceName: "color",
			ClientName:  "Sam",
		},
	}

	var buf bytes.Buffer
	if err := WriteDaySheet(&buf, date, appointments); err != nil {
		t.Fatalf("write day sheet: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheet := "2026-03-02"
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}

	if len(rows) != 3 { // header + 2 appointments
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Start" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "09:00" || rows[1][3] != "Alex" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[2][2] != "color" {
		t.Errorf("unexpected second row: %v", rows[2])
	}
}

func TestWriteDaySheetEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDaySheet(&buf, time.Now(), nil); err != nil {
		t.Fatalf("write empty day sheet: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected a workbook with just the header")
	}
}
