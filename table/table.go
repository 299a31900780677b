package table

import (
	"fmt"
	"strings"

	"github.com/gigapi/gigapi-accidents/core"
)

// Table is a row oriented accident table. Every row has one cell per column.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a table, padding or truncating rows to the header width
func New(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: make([][]string, 0, len(rows))}
	for _, row := range rows {
		t.Rows = append(t.Rows, fit(row, len(columns)))
	}
	return t
}

func fit(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
// An exact match wins over a case-insensitive one.
func (t *Table) ColumnIndex(name string) int {
	fallback := -1
	for i, c := range t.Columns {
		if c == name {
			return i
		}
		if fallback < 0 && strings.EqualFold(strings.TrimSpace(c), name) {
			fallback = i
		}
	}
	return fallback
}

// Column returns the values of the named column
func (t *Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrColumnNotFound, name)
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}
