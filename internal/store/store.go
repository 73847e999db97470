// Package store builds the canonical, immutable record store from the two
// raw backing sheets. All schema validation and per-row derivation happens
// here, once per load; everything downstream consumes typed records.
package store

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wastedash/internal/core"
	"wastedash/internal/source"
)

// Required columns of both sheets; Cost and Grade are optional.
const (
	ColTicketDate = "Ticket Date"
	ColCustomer   = "Customer Name"
	ColWasteType  = "Waste Type ID"
	ColNetWeight  = "Net Weight (tn)"
	ColCost       = "Cost"
	ColGrade      = "Grade"
)

// Store holds both normalized record sets plus the observed filter domain
// (customers, waste types, date bounds). It is immutable after Load and
// safe for concurrent readers.
type Store struct {
	incoming   core.RecordSet
	outgoing   core.RecordSet
	customers  []string
	wasteTypes []string
	bounds     core.DateRange
}

// Load normalizes the two raw sheets into a Store. It is all-or-nothing:
// any *core.SchemaError aborts the load with no partial store.
func Load(incoming, outgoing source.Table) (*Store, error) {
	in, err := buildSet(incoming, core.Incoming)
	if err != nil {
		return nil, err
	}
	out, err := buildSet(outgoing, core.Outgoing)
	if err != nil {
		return nil, err
	}

	s := &Store{incoming: in, outgoing: out}

	// Filter options and date defaults come from the incoming set.
	seenCustomer := map[string]struct{}{}
	seenType := map[string]struct{}{}
	for i, r := range in.Records {
		if _, ok := seenCustomer[r.Customer]; !ok {
			seenCustomer[r.Customer] = struct{}{}
			s.customers = append(s.customers, r.Customer)
		}
		if _, ok := seenType[r.WasteType]; !ok {
			seenType[r.WasteType] = struct{}{}
			s.wasteTypes = append(s.wasteTypes, r.WasteType)
		}
		d := core.DateOnly(r.TicketDate)
		if i == 0 {
			s.bounds = core.DateRange{Start: d, End: d}
			continue
		}
		if d.Before(s.bounds.Start) {
			s.bounds.Start = d
		}
		if d.After(s.bounds.End) {
			s.bounds.End = d
		}
	}

	return s, nil
}

func (s *Store) Incoming() core.RecordSet { return s.incoming }
func (s *Store) Outgoing() core.RecordSet { return s.outgoing }

// Customers returns customer names observed in the incoming set, in
// first-seen order.
func (s *Store) Customers() []string { return s.customers }

// WasteTypes returns trimmed waste type identifiers observed in the
// incoming set, in first-seen order. This is the set the "all types"
// sentinel resolves to.
func (s *Store) WasteTypes() []string { return s.wasteTypes }

// Bounds returns the min/max incoming ticket dates, the default date range
// for a fresh filter spec. The zero range means the incoming set is empty.
func (s *Store) Bounds() core.DateRange { return s.bounds }

func buildSet(t source.Table, origin core.Origin) (core.RecordSet, error) {
	header := make([]string, len(t.Header))
	for i, h := range t.Header {
		header[i] = strings.TrimSpace(h)
	}

	dateIdx, err := requiredColumn(t.Name, header, ColTicketDate)
	if err != nil {
		return core.RecordSet{}, err
	}
	customerIdx, err := requiredColumn(t.Name, header, ColCustomer)
	if err != nil {
		return core.RecordSet{}, err
	}
	typeIdx, err := requiredColumn(t.Name, header, ColWasteType)
	if err != nil {
		return core.RecordSet{}, err
	}
	weightIdx, err := requiredColumn(t.Name, header, ColNetWeight)
	if err != nil {
		return core.RecordSet{}, err
	}
	costIdx := indexOf(header, ColCost)
	gradeIdx := indexOf(header, ColGrade)

	set := core.RecordSet{
		Origin:   origin,
		Columns:  header,
		HasCost:  costIdx >= 0,
		HasGrade: gradeIdx >= 0,
	}

	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		rowNum := i + 1

		ticketDate, err := parseTicketDate(cell(row, dateIdx))
		if err != nil {
			return core.RecordSet{}, &core.SchemaError{
				Sheet: t.Name, Column: ColTicketDate, Row: rowNum,
				Reason: err.Error(),
			}
		}

		weight, err := parseAmount(cell(row, weightIdx))
		if err != nil {
			return core.RecordSet{}, &core.SchemaError{
				Sheet: t.Name, Column: ColNetWeight, Row: rowNum,
				Reason: err.Error(),
			}
		}
		if weight.IsNegative() {
			return core.RecordSet{}, &core.SchemaError{
				Sheet: t.Name, Column: ColNetWeight, Row: rowNum,
				Reason: "net weight cannot be negative",
			}
		}

		cost := decimal.Zero
		if costIdx >= 0 {
			cost, err = parseAmount(cell(row, costIdx))
			if err != nil {
				return core.RecordSet{}, &core.SchemaError{
					Sheet: t.Name, Column: ColCost, Row: rowNum,
					Reason: err.Error(),
				}
			}
		}

		// Per-row derived field so downstream consumers never divide.
		costPerTonne := decimal.Zero
		if weight.IsPositive() {
			costPerTonne = cost.Div(weight)
		}

		grade := ""
		if gradeIdx >= 0 {
			grade = strings.TrimSpace(cell(row, gradeIdx))
		}

		raw := make([]string, len(header))
		copy(raw, row)

		set.Records = append(set.Records, core.Record{
			TicketDate:   ticketDate,
			Customer:     cell(row, customerIdx),
			WasteType:    strings.TrimSpace(cell(row, typeIdx)),
			NetWeight:    weight,
			Cost:         cost,
			Grade:        grade,
			CostPerTonne: costPerTonne,
			Raw:          raw,
		})
	}

	return set, nil
}

func requiredColumn(sheet string, header []string, name string) (int, error) {
	if idx := indexOf(header, name); idx >= 0 {
		return idx, nil
	}
	return -1, &core.SchemaError{Sheet: sheet, Column: name, Reason: "required column missing"}
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ticketDateLayouts covers the formats the backing sheets have shipped
// with: ISO dates with and without time, and day-first UK dates.
var ticketDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

func parseTicketDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, core.ErrZeroTicketDate
	}
	for _, layout := range ticketDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// Unstyled spreadsheet cells surface dates as Excel serial numbers
	// (days since 1899-12-30).
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 59 {
		return fromExcelSerial(serial), nil
	}
	return time.Time{}, &parseError{value: s, what: "date"}
}

func fromExcelSerial(serial float64) time.Time {
	base := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	days := math.Floor(serial)
	frac := serial - days
	return base.AddDate(0, 0, int(days)).Add(time.Duration(frac * 24 * float64(time.Hour)))
}

// parseAmount parses a decimal cell. Empty cells are zero; thousand
// separators are tolerated.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &parseError{value: s, what: "number"}
	}
	return d, nil
}

type parseError struct {
	value string
	what  string
}

func (e *parseError) Error() string {
	return "cannot parse " + strconv.Quote(e.value) + " as " + e.what
}
