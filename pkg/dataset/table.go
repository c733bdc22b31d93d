// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
)

// Column is a named, ordered sequence of cell values. Cells of a column may be
// of any type before transformation; a nil cell is a missing value.
type Column struct {
	Name   string
	Values []any
}

// Table is an ordered set of equally sized named columns. Row order is
// meaningful: row i of every column belongs to the same record.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

var (
	ErrColumnNotFound   = errors.New("column not found")
	ErrDuplicateColumn  = errors.New("duplicate column name")
	ErrRowCountMismatch = errors.New("row count mismatch")
)

// New returns a table with the given columns. All columns must have the same
// number of rows and unique names. The column values are not copied.
func New(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if i == 0 {
			t.rows = len(c.Values)
		}
		if err := t.appendColumn(c.Name, c.Values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

func (t *Table) NumRows() int {
	return t.rows
}

func (t *Table) NumColumns() int {
	return len(t.columns)
}

func (t *Table) ColumnNames() []string {
	return lo.Map(t.columns, func(c *Column, _ int) string { return c.Name })
}

func (t *Table) HasColumn(name string) bool {
	_, found := t.index[name]
	return found
}

// Column returns the values of the named column. The returned slice is owned
// by the table and must not be modified.
func (t *Table) Column(name string) ([]any, bool) {
	i, found := t.index[name]
	if !found {
		return nil, false
	}
	return t.columns[i].Values, true
}

// Row returns a copy of the cells at row i, in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Select returns a new table with the named columns in the given order. Cell
// slices are copied.
func (t *Table) Select(names ...string) (*Table, error) {
	out := &Table{
		columns: make([]*Column, 0, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    t.rows,
	}
	for _, name := range names {
		values, found := t.Column(name)
		if !found {
			return nil, fmt.Errorf("selecting %q: %w", name, ErrColumnNotFound)
		}
		if err := out.appendColumn(name, slices.Clone(values)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clone returns a deep copy of the table column structure. Cell values are
// copied by assignment.
func (t *Table) Clone() *Table {
	out := &Table{
		columns: make([]*Column, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
		rows:    t.rows,
	}
	for i, c := range t.columns {
		out.columns[i] = &Column{Name: c.Name, Values: slices.Clone(c.Values)}
		out.index[c.Name] = i
	}
	return out
}

// SetColumn replaces the values of an existing column in place, or appends a
// new column at the end of the table.
func (t *Table) SetColumn(name string, values []any) error {
	if len(t.columns) > 0 && len(values) != t.rows {
		return fmt.Errorf("setting column %q with %d rows on a table with %d rows: %w", name, len(values), t.rows, ErrRowCountMismatch)
	}
	if i, found := t.index[name]; found {
		t.columns[i].Values = values
		return nil
	}
	if len(t.columns) == 0 {
		t.rows = len(values)
	}
	return t.appendColumn(name, values)
}

// DropColumn removes the named column, keeping the order of the others.
func (t *Table) DropColumn(name string) error {
	i, found := t.index[name]
	if !found {
		return fmt.Errorf("dropping %q: %w", name, ErrColumnNotFound)
	}
	t.columns = slices.Delete(t.columns, i, i+1)
	delete(t.index, name)
	for j := i; j < len(t.columns); j++ {
		t.index[t.columns[j].Name] = j
	}
	if len(t.columns) == 0 {
		t.rows = 0
	}
	return nil
}

// Take returns a new table with the rows at the given indices, in the given
// order.
func (t *Table) Take(indices []int) *Table {
	out := &Table{
		columns: make([]*Column, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
		rows:    len(indices),
	}
	for i, c := range t.columns {
		values := make([]any, len(indices))
		for j, idx := range indices {
			values[j] = c.Values[idx]
		}
		out.columns[i] = &Column{Name: c.Name, Values: values}
		out.index[c.Name] = i
	}
	return out
}

// Concat combines the tables column-wise, in the order given. All non empty
// tables must have the same number of rows and column names must not repeat.
func Concat(tables ...*Table) (*Table, error) {
	out := Empty()
	for _, t := range tables {
		if t == nil || t.NumColumns() == 0 {
			continue
		}
		if out.NumColumns() > 0 && t.rows != out.rows {
			return nil, fmt.Errorf("concatenating table with %d rows to table with %d rows: %w", t.rows, out.rows, ErrRowCountMismatch)
		}
		if out.NumColumns() == 0 {
			out.rows = t.rows
		}
		for _, c := range t.columns {
			if err := out.appendColumn(c.Name, c.Values); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (t *Table) appendColumn(name string, values []any) error {
	if _, found := t.index[name]; found {
		return fmt.Errorf("%q: %w", name, ErrDuplicateColumn)
	}
	if len(values) != t.rows {
		return fmt.Errorf("column %q has %d rows, expected %d: %w", name, len(values), t.rows, ErrRowCountMismatch)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, &Column{Name: name, Values: values})
	return nil
}

// IsMissing reports whether a cell holds a missing value: nil or a NaN float.
func IsMissing(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	default:
		return false
	}
}
