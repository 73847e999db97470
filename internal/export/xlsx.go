// Package export serializes filtered record views into an Excel workbook.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"wastedash/internal/core"
)

// MIMEType is the content type of the generated workbook.
const MIMEType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	incomingSheet = "Incoming"
	outgoingSheet = "Outgoing"
)

// Filename derives the download name from the filtered date range.
// The same range always produces the same name.
func Filename(dr core.DateRange) string {
	return fmt.Sprintf("Waste_Report_%s_%s.xlsx",
		dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"))
}

// Serialize writes both views into a two-sheet workbook. Each sheet
// carries the view's original column header followed by the original
// cell values of every record, in view order. An empty view still gets
// its header row.
func Serialize(incoming, outgoing core.RecordSet) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", incomingSheet); err != nil {
		return nil, fmt.Errorf("export: rename default sheet: %w", err)
	}
	if _, err := f.NewSheet(outgoingSheet); err != nil {
		return nil, fmt.Errorf("export: create sheet %q: %w", outgoingSheet, err)
	}

	if err := writeSheet(f, incomingSheet, incoming); err != nil {
		return nil, err
	}
	if err := writeSheet(f, outgoingSheet, outgoing); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf, nil
}

func writeSheet(f *excelize.File, sheet string, set core.RecordSet) error {
	if err := setRow(f, sheet, 1, set.Columns); err != nil {
		return err
	}
	for i, rec := range set.Records {
		if err := setRow(f, sheet, i+2, rec.Raw); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: row %d on %q: %w", row, sheet, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("export: row %d on %q: %w", row, sheet, err)
	}
	return nil
}
