package trail

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/dshills/gotrail/pkg/table"
)

// CellEntry is one Cellwise logger record: a single cell that changed.
type CellEntry struct {
	// Step is the 1-based step number within the logger attachment
	Step int `json:"step"`
	// Key is the row key value the change belongs to
	Key interface{} `json:"key"`
	// Column is the column the change happened in
	Column string `json:"column"`
	// Old is the value before the step; nil when the row or column was added
	Old interface{} `json:"old"`
	// New is the value after the step; nil when the row or column was removed
	New interface{} `json:"new"`
}

// Cellwise records every individual cell change per step.
//
// Each step's input and output tables are aligned on the key column: rows
// sharing a key value are compared cell by cell, rows present on only one
// side are recorded as fully added or fully removed. The key column itself
// is never diffed, and key values must be unique per snapshot.
type Cellwise struct {
	key     string
	ignore  map[string]struct{}
	verbose bool
	entries []CellEntry
}

// CellwiseOption configures a Cellwise logger at construction.
type CellwiseOption func(*Cellwise)

// CellwiseIgnore excludes columns from diffing, on top of the key column.
func CellwiseIgnore(columns ...string) CellwiseOption {
	return func(l *Cellwise) {
		for _, col := range columns {
			l.ignore[col] = struct{}{}
		}
	}
}

// CellwiseVerbose controls the informational notice printed on flush.
// Verbose is on by default.
func CellwiseVerbose(verbose bool) CellwiseOption {
	return func(l *Cellwise) {
		l.verbose = verbose
	}
}

// NewCellwise creates a Cellwise change logger keyed on the given column.
func NewCellwise(key string, opts ...CellwiseOption) (*Cellwise, error) {
	if key == "" {
		return nil, ErrMissingKey
	}

	l := &Cellwise{
		key:     key,
		ignore:  make(map[string]struct{}),
		verbose: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Key returns the key column the logger aligns rows on.
func (l *Cellwise) Key() string {
	return l.key
}

// Record diffs the input and output tables of one step and appends one
// entry per changed cell. The append is atomic: on error the accumulated
// log is unchanged.
func (l *Cellwise) Record(meta Meta, input, output interface{}) error {
	in, err := asTable(input)
	if err != nil {
		return fmt.Errorf("input snapshot: %w", err)
	}
	out, err := asTable(output)
	if err != nil {
		return fmt.Errorf("output snapshot: %w", err)
	}

	batch, err := l.diff(meta.Step, in, out)
	if err != nil {
		return err
	}

	l.entries = append(l.entries, batch...)
	return nil
}

// diff computes the cell changes between two snapshots.
//
// Entries come out in a deterministic order: matched and added rows in
// output row order with columns in output column order, then removed rows
// in input row order.
func (l *Cellwise) diff(step int, in, out *table.Table) ([]CellEntry, error) {
	inKeys, err := keyIndex(in, l.key)
	if err != nil {
		return nil, fmt.Errorf("input snapshot: %w", err)
	}
	outKeys, err := keyIndex(out, l.key)
	if err != nil {
		return nil, fmt.Errorf("output snapshot: %w", err)
	}

	entries := make([]CellEntry, 0)

	outKeyCol, _ := out.Column(l.key)
	for row, keyVal := range outKeyCol.Cells {
		inRow, matched := inKeys[keyVal]
		if !matched {
			// Added row: every retained column goes from absent to its value
			for _, name := range out.Columns() {
				if l.skip(name) {
					continue
				}
				v, _ := out.Cell(row, name)
				entries = append(entries, CellEntry{Step: step, Key: keyVal, Column: name, Old: nil, New: v})
			}
			continue
		}

		// Matched row: compare shared columns, then the one-sided ones
		for _, name := range out.Columns() {
			if l.skip(name) {
				continue
			}
			newVal, _ := out.Cell(row, name)
			if !in.HasColumn(name) {
				// Column introduced by this step
				entries = append(entries, CellEntry{Step: step, Key: keyVal, Column: name, Old: nil, New: newVal})
				continue
			}
			oldVal, _ := in.Cell(inRow, name)
			if !table.CellsEqual(oldVal, newVal) {
				entries = append(entries, CellEntry{Step: step, Key: keyVal, Column: name, Old: oldVal, New: newVal})
			}
		}
		for _, name := range in.Columns() {
			if l.skip(name) || out.HasColumn(name) {
				continue
			}
			// Column dropped by this step
			oldVal, _ := in.Cell(inRow, name)
			entries = append(entries, CellEntry{Step: step, Key: keyVal, Column: name, Old: oldVal, New: nil})
		}
	}

	inKeyCol, _ := in.Column(l.key)
	for row, keyVal := range inKeyCol.Cells {
		if _, still := outKeys[keyVal]; still {
			continue
		}
		// Removed row: every retained column goes from its value to absent
		for _, name := range in.Columns() {
			if l.skip(name) {
				continue
			}
			v, _ := in.Cell(row, name)
			entries = append(entries, CellEntry{Step: step, Key: keyVal, Column: name, Old: v, New: nil})
		}
	}

	return entries, nil
}

// skip reports whether a column is excluded from diffing.
func (l *Cellwise) skip(name string) bool {
	if name == l.key {
		return true
	}
	_, ignored := l.ignore[name]
	return ignored
}

// keyIndex maps each key value to its row index, rejecting duplicates.
func keyIndex(t *table.Table, key string) (map[interface{}]int, error) {
	col, ok := t.Column(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyColumn, key)
	}

	idx := make(map[interface{}]int, len(col.Cells))
	for i, v := range col.Cells {
		if _, dup := idx[v]; dup {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateKey, v)
		}
		idx[v] = i
	}
	return idx, nil
}

// Entries returns a copy of the accumulated log.
func (l *Cellwise) Entries() []CellEntry {
	entries := make([]CellEntry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// Flush writes the accumulated log to the selected sink.
// The default sink is DefaultCellwiseFile in the working directory. The
// key column in the header carries the logger's key name.
func (l *Cellwise) Flush(opts FlushOptions) error {
	sink := opts.sink(DefaultCellwiseFile)

	rows := make([][]string, 0, len(l.entries))
	for _, e := range l.entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Step),
			table.CellString(e.Key),
			e.Column,
			table.CellString(e.Old),
			table.CellString(e.New),
		})
	}

	if err := sink.Write([]string{"step", l.key, "column", "old", "new"}, rows); err != nil {
		return err
	}

	if l.verbose {
		log.Printf("gotrail: wrote %d cell change(s) to %s", len(rows), sink.Target())
	}
	return nil
}

// ExportJSON serializes the accumulated log for external tooling.
func (l *Cellwise) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(l.Entries(), "", "  ")
}
