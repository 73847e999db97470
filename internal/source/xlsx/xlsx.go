// Package xlsx reads the backing workbook from a local .xlsx file.
package xlsx

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"wastedash/internal/core"
	"wastedash/internal/source"
)

type Source struct {
	path string
}

var _ source.Source = (*Source)(nil)

func New(path string) *Source {
	return &Source{path: path}
}

// Load opens the workbook and reads both master sheets. A missing sheet or
// an unreadable file fails the whole load.
func (s *Source) Load(ctx context.Context) (source.Table, source.Table, error) {
	if err := ctx.Err(); err != nil {
		return source.Table{}, source.Table{}, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return source.Table{}, source.Table{}, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	incoming, err := readSheet(f, source.IncomingSheet)
	if err != nil {
		return source.Table{}, source.Table{}, err
	}
	outgoing, err := readSheet(f, source.OutgoingSheet)
	if err != nil {
		return source.Table{}, source.Table{}, err
	}
	return incoming, outgoing, nil
}

func readSheet(f *excelize.File, name string) (source.Table, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return source.Table{}, fmt.Errorf("look up sheet %s: %w", name, err)
	}
	if idx < 0 {
		return source.Table{}, &core.SchemaError{Sheet: name, Reason: "sheet not found in workbook"}
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return source.Table{}, fmt.Errorf("read sheet %s: %w", name, err)
	}
	return source.TableFromRows(name, rows)
}
