// Package table implements the in-memory tabular datasets that gotrail
// pipelines transform: ordered named columns of scalar cells sharing a
// single row count. Cell values are nil (missing), string, int64, float64,
// or bool.
package table

import (
	"errors"
	"fmt"
)

// Common table errors
var (
	ErrColumnExists  = errors.New("column already exists")
	ErrUnknownColumn = errors.New("unknown column")
	ErrEmptyName     = errors.New("column name cannot be empty")
	ErrRowRange      = errors.New("row index out of range")
	ErrArityMismatch = errors.New("cell count does not match column count")
	ErrRaggedColumns = errors.New("columns differ in length")
	ErrCellType      = errors.New("unsupported cell type")
)

// Column is a named, ordered sequence of cells
type Column struct {
	// Name identifies the column, unique within a table
	Name string
	// Cells holds the values in row order; a nil cell is missing
	Cells []interface{}
}

// Table is a tabular dataset with ordered, named columns
// Column order and row order are significant: the same values in a
// different arrangement are a different table
type Table struct {
	cols  []*Column
	index map[string]int
}

// New creates an empty table with the given columns
func New(names ...string) (*Table, error) {
	t := &Table{
		cols:  make([]*Column, 0, len(names)),
		index: make(map[string]int, len(names)),
	}

	for _, name := range names {
		if err := t.AddColumn(name); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// FromColumns builds a table from columns in the given order
// Cell slices are copied, so the caller keeps ownership of its slices
func FromColumns(cols []Column) (*Table, error) {
	t := &Table{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}

	rows := -1
	for _, col := range cols {
		if col.Name == "" {
			return nil, ErrEmptyName
		}
		if _, exists := t.index[col.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrColumnExists, col.Name)
		}
		if rows >= 0 && len(col.Cells) != rows {
			return nil, fmt.Errorf("%w: %q has %d cells, want %d", ErrRaggedColumns, col.Name, len(col.Cells), rows)
		}
		rows = len(col.Cells)

		cells := make([]interface{}, len(col.Cells))
		copy(cells, col.Cells)
		t.index[col.Name] = len(t.cols)
		t.cols = append(t.cols, &Column{Name: col.Name, Cells: cells})
	}

	return t, nil
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0].Cells)
}

// NumCols returns the number of columns
func (t *Table) NumCols() int {
	return len(t.cols)
}

// Columns returns the column names in order
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, col := range t.cols {
		names[i] = col.Name
	}
	return names
}

// HasColumn returns true if the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the live column with the given name
// Mutating its cells mutates the table
func (t *Table) Column(name string) (*Column, bool) {
	pos, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[pos], true
}

// AddColumn appends an empty column padded with missing cells to the
// current row count
func (t *Table) AddColumn(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, exists := t.index[name]; exists {
		return fmt.Errorf("%w: %q", ErrColumnExists, name)
	}

	t.index[name] = len(t.cols)
	t.cols = append(t.cols, &Column{
		Name:  name,
		Cells: make([]interface{}, t.NumRows()),
	})
	return nil
}

// AppendRow adds one row of cells, one per column in column order
// Values are normalized to the canonical cell types
func (t *Table) AppendRow(cells ...interface{}) error {
	if len(cells) != len(t.cols) {
		return fmt.Errorf("%w: got %d cells for %d columns", ErrArityMismatch, len(cells), len(t.cols))
	}

	normalized := make([]interface{}, len(cells))
	for i, v := range cells {
		nv, err := NormalizeCell(v)
		if err != nil {
			return fmt.Errorf("column %q: %w", t.cols[i].Name, err)
		}
		normalized[i] = nv
	}

	for i, col := range t.cols {
		col.Cells = append(col.Cells, normalized[i])
	}
	return nil
}

// Row returns a copy of one row's cells in column order
func (t *Table) Row(row int) ([]interface{}, error) {
	if row < 0 || row >= t.NumRows() {
		return nil, fmt.Errorf("%w: %d", ErrRowRange, row)
	}

	cells := make([]interface{}, len(t.cols))
	for i, col := range t.cols {
		cells[i] = col.Cells[row]
	}
	return cells, nil
}

// Cell returns the value at the given row and column
func (t *Table) Cell(row int, column string) (interface{}, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if row < 0 || row >= len(col.Cells) {
		return nil, fmt.Errorf("%w: %d", ErrRowRange, row)
	}
	return col.Cells[row], nil
}

// SetCell replaces the value at the given row and column
// The value is normalized to the canonical cell types
func (t *Table) SetCell(row int, column string, v interface{}) error {
	col, ok := t.Column(column)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if row < 0 || row >= len(col.Cells) {
		return fmt.Errorf("%w: %d", ErrRowRange, row)
	}

	nv, err := NormalizeCell(v)
	if err != nil {
		return fmt.Errorf("column %q: %w", column, err)
	}
	col.Cells[row] = nv
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	clone := &Table{
		cols:  make([]*Column, len(t.cols)),
		index: make(map[string]int, len(t.index)),
	}

	for i, col := range t.cols {
		cells := make([]interface{}, len(col.Cells))
		copy(cells, col.Cells)
		clone.cols[i] = &Column{Name: col.Name, Cells: cells}
		clone.index[col.Name] = i
	}

	return clone
}

// Equal compares two tables cell by cell
// Tables are equal only when column names, column order, row order, and
// every cell value match
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.cols) != len(o.cols) || t.NumRows() != o.NumRows() {
		return false
	}

	for i, col := range t.cols {
		other := o.cols[i]
		if col.Name != other.Name {
			return false
		}
		for row := range col.Cells {
			if !CellsEqual(col.Cells[row], other.Cells[row]) {
				return false
			}
		}
	}

	return true
}

// String returns a compact description for notices and errors
func (t *Table) String() string {
	return fmt.Sprintf("table[%d cols x %d rows]", t.NumCols(), t.NumRows())
}
