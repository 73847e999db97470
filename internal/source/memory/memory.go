// Package memory provides an in-process Source seeded with fixture data,
// used for local development and tests.
package memory

import (
	"context"

	"wastedash/internal/source"
)

type Store struct {
	incoming source.Table
	outgoing source.Table
}

var _ source.Source = (*Store)(nil)

func New(incoming, outgoing source.Table) *Store {
	return &Store{incoming: incoming, outgoing: outgoing}
}

// NewSample returns a source with a small, representative data set: both
// optional columns present on incoming, grade only on outgoing.
func NewSample() *Store {
	incoming := source.Table{
		Name:   source.IncomingSheet,
		Header: []string{"Ticket Date", "Customer Name", "Waste Type ID", "Net Weight (tn)", "Cost", "Grade"},
		Rows: [][]string{
			{"2024-01-02", "Acme Recycling", "MIX-01", "12.40", "930.00", "Ferrous"},
			{"2024-01-02", "Borough Works", "ALU-02", "3.15", "504.00", "Non-Ferrous"},
			{"2024-01-05", "Acme Recycling", "MIX-01", "8.00", "600.00", "Ferrous"},
			{"2024-01-09", "Citywide Metals", "CU-07", "1.25", "0", "Non-Ferrous"},
			{"2024-01-12", "Borough Works", "MIX-01", "15.80", "1185.00", "Ferrous"},
		},
	}
	outgoing := source.Table{
		Name:   source.OutgoingSheet,
		Header: []string{"Ticket Date", "Customer Name", "Waste Type ID", "Net Weight (tn)", "Grade"},
		Rows: [][]string{
			{"2024-01-04", "Acme Recycling", "MIX-01", "10.00", "Ferrous"},
			{"2024-01-10", "Borough Works", "ALU-02", "2.90", "Non-Ferrous"},
			{"2024-01-12", "Acme Recycling", "MIX-01", "14.20", "Ferrous"},
		},
	}
	return New(incoming, outgoing)
}

func (s *Store) Load(_ context.Context) (source.Table, source.Table, error) {
	return s.incoming, s.outgoing, nil
}
