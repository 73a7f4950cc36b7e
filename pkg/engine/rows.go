package engine

import (
	"errors"
	"fmt"

	"github.com/cobaltdb/sqlitescan/pkg/record"
)

// Rows represents query results
type Rows struct {
	columns []string
	rows    [][]record.Value
	pos     int
	plan    Plan
}

// Next advances to the next row
func (r *Rows) Next() bool {
	if r == nil {
		return false
	}
	r.pos++
	return r.pos <= len(r.rows)
}

// Values returns the current row
func (r *Rows) Values() []record.Value {
	if r.pos == 0 || r.pos > len(r.rows) {
		return nil
	}
	return r.rows[r.pos-1]
}

// Scan copies column values into dest
func (r *Rows) Scan(dest ...interface{}) error {
	row := r.Values()
	if row == nil {
		return errors.New("no current row")
	}
	if len(dest) != len(row) {
		return fmt.Errorf("column count mismatch: %d destinations for %d columns", len(dest), len(row))
	}

	for i, d := range dest {
		if err := scanValue(row[i], d); err != nil {
			return fmt.Errorf("column %s: %w", r.columns[i], err)
		}
	}
	return nil
}

// Columns returns the column names
func (r *Rows) Columns() []string {
	return r.columns
}

// Len returns the number of rows
func (r *Rows) Len() int {
	return len(r.rows)
}

// Plan returns the access path the query used
func (r *Rows) Plan() Plan {
	return r.plan
}

// Close closes the rows
func (r *Rows) Close() error {
	r.rows = nil
	return nil
}

// scanValue scans a value into a destination
func scanValue(src record.Value, dest interface{}) error {
	switch d := dest.(type) {
	case *interface{}:
		*d = src.Interface()
	case *record.Value:
		*d = src
	case *string:
		*d = src.String()
	case *int:
		if !src.IsNumeric() {
			return fmt.Errorf("%w: cannot scan %s into int", ErrTypeMismatch, src.Kind())
		}
		*d = int(src.Int())
	case *int64:
		if !src.IsNumeric() {
			return fmt.Errorf("%w: cannot scan %s into int64", ErrTypeMismatch, src.Kind())
		}
		*d = src.Int()
	case *float64:
		if !src.IsNumeric() {
			return fmt.Errorf("%w: cannot scan %s into float64", ErrTypeMismatch, src.Kind())
		}
		*d = src.Float()
	default:
		return fmt.Errorf("unsupported scan destination: %T", dest)
	}
	return nil
}
