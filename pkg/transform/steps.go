package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/gotrail/pkg/table"
)

// selectStep keeps only the named columns
type selectStep struct {
	columns []string
}

// Select keeps only the named columns. The result's column order follows
// the argument order, not the input order, so Select doubles as a reorder.
func Select(columns ...string) Transform[*table.Table] {
	return &selectStep{columns: columns}
}

// Source lists the selected columns.
func (s *selectStep) Source() string {
	return fmt.Sprintf("select(%s)", strings.Join(s.columns, ", "))
}

// Apply builds a new table holding the selected columns in argument order.
func (s *selectStep) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	if len(s.columns) == 0 {
		return nil, fmt.Errorf("select: %w", ErrEmptySelection)
	}

	cols := make([]table.Column, 0, len(s.columns))
	for _, name := range s.columns {
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("select: %w: %q", table.ErrUnknownColumn, name)
		}
		cols = append(cols, table.Column{Name: col.Name, Cells: col.Cells})
	}

	out, err := table.FromColumns(cols)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return out, nil
}

// dropStep removes the named columns
type dropStep struct {
	columns []string
}

// Drop removes the named columns, keeping the rest in their original order.
func Drop(columns ...string) Transform[*table.Table] {
	return &dropStep{columns: columns}
}

// Source lists the dropped columns.
func (d *dropStep) Source() string {
	return fmt.Sprintf("drop(%s)", strings.Join(d.columns, ", "))
}

// Apply builds a new table without the dropped columns.
func (d *dropStep) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	dropped := make(map[string]bool, len(d.columns))
	for _, name := range d.columns {
		if !t.HasColumn(name) {
			return nil, fmt.Errorf("drop: %w: %q", table.ErrUnknownColumn, name)
		}
		dropped[name] = true
	}

	cols := make([]table.Column, 0, t.NumCols())
	for _, name := range t.Columns() {
		if dropped[name] {
			continue
		}
		col, _ := t.Column(name)
		cols = append(cols, table.Column{Name: col.Name, Cells: col.Cells})
	}

	out, err := table.FromColumns(cols)
	if err != nil {
		return nil, fmt.Errorf("drop: %w", err)
	}
	return out, nil
}

// renameStep changes one column's name
type renameStep struct {
	from string
	to   string
}

// Rename changes one column's name, keeping its position and cells.
func Rename(from, to string) Transform[*table.Table] {
	return &renameStep{from: from, to: to}
}

// Source shows the old and new names.
func (r *renameStep) Source() string {
	return fmt.Sprintf("rename(%s -> %s)", r.from, r.to)
}

// Apply builds a new table with the column renamed in place.
func (r *renameStep) Apply(ctx context.Context, t *table.Table) (*table.Table, error) {
	if r.to == "" {
		return nil, fmt.Errorf("rename: %w", table.ErrEmptyName)
	}
	if !t.HasColumn(r.from) {
		return nil, fmt.Errorf("rename: %w: %q", table.ErrUnknownColumn, r.from)
	}
	if r.to != r.from && t.HasColumn(r.to) {
		return nil, fmt.Errorf("rename: %w: %q", table.ErrColumnExists, r.to)
	}

	cols := make([]table.Column, 0, t.NumCols())
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		outName := col.Name
		if outName == r.from {
			outName = r.to
		}
		cols = append(cols, table.Column{Name: outName, Cells: col.Cells})
	}

	out, err := table.FromColumns(cols)
	if err != nil {
		return nil, fmt.Errorf("rename: %w", err)
	}
	return out, nil
}
