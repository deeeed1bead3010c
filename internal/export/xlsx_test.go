package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tle-lab/reservations/internal/model"
)

func TestWriteReservations(t *testing.T) {
	owner := uint64(3)
	rs := []model.Reservation{
		{ID: 2, Venue: "Lab A", Date: "2024-05-02", TimeFrom: "09:00", TimeTo: "10:00", Equipment: "Projector (x2)", PersonName: "alice", CreatedBy: &owner, Status: model.StatusApproved, CreatedAt: time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)},
		{ID: 1, Venue: model.EquipmentVenue, Date: "2024-05-03", PersonName: "bob", Status: model.StatusPending},
	}
	var buf bytes.Buffer
	if err := WriteReservations(&buf, rs); err != nil {
		t.Fatalf("WriteReservations: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "ID" || rows[1][0] != "2" || rows[1][8] != "3" || rows[1][9] != "approved" || rows[1][10] != "2024-05-01 08:30" {
		t.Fatalf("first data row = %v", rows[1])
	}
	if rows[2][1] != model.EquipmentVenue {
		t.Fatalf("second data row = %v", rows[2])
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("2024-05-01"); got != "reservations-2024-05-01.xlsx" {
		t.Fatalf("Filename = %q", got)
	}
}
