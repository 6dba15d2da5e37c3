// Package trail implements change loggers for data pipelines: trackers
// that ride along a chain of transformations, record what each step did to
// the dataset, and flush the accumulated log to a sink.
//
// Two loggers are provided. Simple records one entry per step saying
// whether the step changed anything at all. Cellwise aligns the input and
// output tables of each step on a key column and records every individual
// cell that changed. Both retain their log in memory until Flush.
package trail

import (
	"errors"
	"reflect"
	"time"

	"github.com/dshills/gotrail/pkg/storage"
	"github.com/dshills/gotrail/pkg/table"
)

// Sentinel errors for change logging
var (
	ErrMissingKey   = errors.New("cellwise logger requires a key column")
	ErrKeyColumn    = errors.New("key column not found")
	ErrDuplicateKey = errors.New("duplicate key value")
	ErrNotTabular   = errors.New("snapshot is not a table")
)

// Default sink filenames used when Flush gets no path.
const (
	DefaultSimpleFile   = "simple_log.csv"
	DefaultCellwiseFile = "cellwise_log.csv"
)

// Meta describes one recorded pipeline step.
type Meta struct {
	// Step is the 1-based position of the step within the current logger
	// attachment. Strictly increasing with no gaps.
	Step int
	// Time is the wall-clock moment the step was recorded.
	Time time.Time
	// Expr is the textual form of the step. Exact for expression steps,
	// best effort for Go functions; Step is the reliable correlation key.
	Expr string
	// Op optionally carries the step value itself for loggers that need
	// more than the textual form.
	Op interface{}
}

// Logger is the capability contract every change logger implements.
// The pipeline chain depends on nothing else.
type Logger interface {
	// Record appends entries describing the difference between the input
	// and output snapshots of one step. It must not mutate either
	// snapshot, and it must append atomically: on error the accumulated
	// log is exactly what it was before the call.
	Record(meta Meta, input, output interface{}) error
	// Flush serializes the full accumulated log to the sink described by
	// opts. An empty log produces a header-only sink, not an error.
	Flush(opts FlushOptions) error
}

// FlushOptions selects the sink a logger flushes to.
type FlushOptions struct {
	// Path is the sink file. Empty selects the logger's default filename.
	Path string
	// Append adds to an existing sink file instead of replacing it.
	Append bool
	// Sink overrides Path and Append with an explicit destination.
	Sink storage.Sink
}

// sink resolves the options into a concrete destination.
func (o FlushOptions) sink(defaultName string) storage.Sink {
	if o.Sink != nil {
		return o.Sink
	}

	path := o.Path
	if path == "" {
		path = defaultName
	}
	return &storage.CSVSink{Path: path, Append: o.Append}
}

// snapshotsEqual reports structural equality between two snapshots.
// Tables compare cell by cell in column order, so reordered rows or
// columns count as a change; anything else compares with reflect.DeepEqual.
func snapshotsEqual(a, b interface{}) bool {
	at, aok := a.(*table.Table)
	bt, bok := b.(*table.Table)
	if aok && bok {
		return at.Equal(bt)
	}
	if aok != bok {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// asTable narrows a snapshot to the tabular form cellwise logging needs.
func asTable(v interface{}) (*table.Table, error) {
	t, ok := v.(*table.Table)
	if !ok || t == nil {
		return nil, ErrNotTabular
	}
	return t, nil
}
