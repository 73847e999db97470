package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Origin tags a record set as incoming or outgoing material movement.
// The two sets are kept separate end to end; combined views always carry the tag.
type Origin string

const (
	Incoming Origin = "incoming"
	Outgoing Origin = "outgoing"
)

var (
	ErrInvalidDateRange = errors.New("date range start is after end")
	ErrNegativeWeight   = errors.New("net weight cannot be negative")
	ErrZeroTicketDate   = errors.New("ticket date cannot be zero")
)

// Record is one material movement ticket in canonical form.
type Record struct {
	// TicketDate keeps the original timestamp; filtering compares the
	// calendar date only (see DateRange.Contains).
	TicketDate time.Time
	Customer   string
	// WasteType is whitespace-trimmed at load and compared case-sensitively.
	WasteType string
	// NetWeight is in tonnes, non-negative, may be zero.
	NetWeight decimal.Decimal
	// Cost is zero when the source sheet carries no Cost column; consult
	// the owning RecordSet's HasCost flag to tell "zero" from "absent".
	Cost decimal.Decimal
	// Grade is empty when the source sheet carries no Grade column.
	Grade string
	// CostPerTonne is Cost/NetWeight derived once at load time, zero when
	// NetWeight is zero.
	CostPerTonne decimal.Decimal
	// Raw holds the source cells in original column order so exports can
	// reproduce the sheet byte-for-byte.
	Raw []string
}

func (r Record) Validate() error {
	if r.TicketDate.IsZero() {
		return ErrZeroTicketDate
	}
	if r.NetWeight.IsNegative() {
		return ErrNegativeWeight
	}
	return nil
}

// RecordSet is an immutable collection of records from one origin.
// A filtered view is a RecordSet sharing the parent's Columns and
// optional-column flags with a subset of Records in original order.
type RecordSet struct {
	Origin  Origin
	Columns []string
	Records []Record
	// HasCost and HasGrade are resolved once at load time; downstream
	// consumers never check column presence themselves.
	HasCost  bool
	HasGrade bool
}

// Empty reports whether the set holds no records. Empty sets are a valid,
// expected state, not an error.
func (s RecordSet) Empty() bool { return len(s.Records) == 0 }

// DateRange is an inclusive calendar-date interval.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// Contains reports whether the ticket's calendar date falls inside the
// range; the time of day is discarded for the comparison.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOnly(t)
	return !d.Before(DateOnly(r.Start)) && !d.After(DateOnly(r.End))
}

// DateOnly truncates a timestamp to midnight UTC so calendar dates compare
// and group consistently regardless of the source's time component.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
