// Package report implements the filtering and aggregation engine: pure
// functions from (record store, filter spec) to filtered views, scalar
// KPIs and chartable series. Nothing here mutates the store or keeps
// state between calls.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"wastedash/internal/core"
	"wastedash/internal/store"
)

// PriceStatus narrows the incoming view by whether a ticket carries a
// positive cost. It never affects the outgoing view.
type PriceStatus string

const (
	PriceAny      PriceStatus = "any"
	PricePriced   PriceStatus = "priced"
	PriceUnpriced PriceStatus = "unpriced"
)

func (p PriceStatus) valid() bool {
	switch p {
	case PriceAny, PricePriced, PriceUnpriced:
		return true
	}
	return false
}

// Spec is the declarative filter state. It is constructed fresh from user
// input on every interaction and never mutated in place; sentinel values
// are resolved once by Normalize, not per row.
type Spec struct {
	Dates core.DateRange
	// Customer filters both views by exact name match; empty means all
	// customers.
	Customer string
	// WasteTypes filters by trimmed identifier; nil means all types
	// observed in the incoming set.
	WasteTypes []string
	// Price defaults to PriceAny.
	Price PriceStatus
}

// Normalize resolves the spec's sentinels against the store and validates
// it. The returned spec is fully concrete: date range set, waste type set
// resolved, price status non-empty.
func Normalize(spec Spec, st *store.Store) (Spec, error) {
	if spec.Dates.Start.IsZero() && spec.Dates.End.IsZero() {
		spec.Dates = st.Bounds()
	}
	if err := spec.Dates.Validate(); err != nil {
		return Spec{}, err
	}
	if spec.WasteTypes == nil {
		spec.WasteTypes = st.WasteTypes()
	}
	if spec.Price == "" {
		spec.Price = PriceAny
	}
	if !spec.Price.valid() {
		return Spec{}, fmt.Errorf("invalid price status: %q", spec.Price)
	}
	return spec, nil
}

// Key returns a canonical string form of a normalized spec, stable under
// waste type ordering. Used as a cache key for computed reports.
func (s Spec) Key() string {
	types := make([]string, 0, len(s.WasteTypes))
	for _, t := range s.WasteTypes {
		types = append(types, strconv.Quote(t))
	}
	sort.Strings(types)
	return strings.Join([]string{
		s.Dates.Start.Format("2006-01-02"),
		s.Dates.End.Format("2006-01-02"),
		strconv.Quote(s.Customer),
		strings.Join(types, ","),
		string(s.Price),
	}, "|")
}
