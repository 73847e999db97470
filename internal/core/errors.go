package core

import "fmt"

// SchemaError reports a structural problem in the backing data: a required
// column missing or a value that cannot be parsed. It is fatal to the load;
// no partial store is ever built from a sheet that raises one.
type SchemaError struct {
	Sheet  string
	Column string
	// Row is the 1-based data row that failed, 0 when the problem is the
	// header itself.
	Row    int
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("sheet %q, column %q, row %d: %s", e.Sheet, e.Column, e.Row, e.Reason)
	}
	return fmt.Sprintf("sheet %q, column %q: %s", e.Sheet, e.Column, e.Reason)
}
