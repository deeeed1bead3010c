// Package export renders reservation listings as spreadsheets for admins.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tle-lab/reservations/internal/model"
)

// SheetName is the single worksheet of the export.
const SheetName = "Reservations"

var header = []any{"ID", "Venue", "Date", "From", "To", "Purpose", "Equipment", "Person", "Owner ID", "Status", "Created At"}

// WriteReservations writes rs as an XLSX workbook to w.  Rows follow the
// order of rs.
func WriteReservations(w io.Writer, rs []model.Reservation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range rs {
		owner := ""
		if r.OwnerID != nil {
			owner = fmt.Sprint(*r.OwnerID)
		} else if r.CreatedBy != nil {
			owner = fmt.Sprint(*r.CreatedBy)
		}
		row := []any{
			r.ID, r.Venue, r.Date, r.TimeFrom, r.TimeTo, r.Purpose, r.Equipment,
			r.PersonName, owner, string(r.Status), r.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	for col, width := range map[string]float64{"B": 24, "F": 32, "G": 40, "H": 20, "K": 18} {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// Filename returns the download name for an export taken on day
// (YYYY-MM-DD).
func Filename(day string) string {
	return "reservations-" + strings.ReplaceAll(day, "/", "-") + ".xlsx"
}
