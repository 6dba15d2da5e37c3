package trail

import (
	"encoding/json"
	"log"
	"strconv"
	"time"
)

// SimpleEntry is one Simple logger record: whether a step changed the data.
type SimpleEntry struct {
	// Step is the 1-based step number within the logger attachment
	Step int `json:"step"`
	// Time is when the step was recorded
	Time time.Time `json:"timestamp"`
	// Expr is the textual form of the step
	Expr string `json:"expr"`
	// Changed reports whether the step altered the data at all
	Changed bool `json:"changed"`
}

// Simple records, per step, only whether the snapshot changed.
// It works on any data type the chain carries, not just tables.
type Simple struct {
	verbose bool
	entries []SimpleEntry
}

// SimpleOption configures a Simple logger at construction.
type SimpleOption func(*Simple)

// SimpleVerbose controls the informational notice printed on flush.
// Verbose is on by default.
func SimpleVerbose(verbose bool) SimpleOption {
	return func(l *Simple) {
		l.verbose = verbose
	}
}

// NewSimple creates a Simple change logger.
func NewSimple(opts ...SimpleOption) *Simple {
	l := &Simple{verbose: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends one entry comparing the input and output snapshots.
func (l *Simple) Record(meta Meta, input, output interface{}) error {
	l.entries = append(l.entries, SimpleEntry{
		Step:    meta.Step,
		Time:    meta.Time,
		Expr:    meta.Expr,
		Changed: !snapshotsEqual(input, output),
	})
	return nil
}

// Entries returns a copy of the accumulated log.
func (l *Simple) Entries() []SimpleEntry {
	entries := make([]SimpleEntry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// Flush writes the accumulated log to the selected sink.
// The default sink is DefaultSimpleFile in the working directory.
func (l *Simple) Flush(opts FlushOptions) error {
	sink := opts.sink(DefaultSimpleFile)

	rows := make([][]string, 0, len(l.entries))
	for _, e := range l.entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Step),
			e.Time.Format(time.RFC3339),
			e.Expr,
			strconv.FormatBool(e.Changed),
		})
	}

	if err := sink.Write([]string{"step", "timestamp", "expr", "changed"}, rows); err != nil {
		return err
	}

	if l.verbose {
		log.Printf("gotrail: wrote %d change record(s) to %s", len(rows), sink.Target())
	}
	return nil
}

// ExportJSON serializes the accumulated log for external tooling.
func (l *Simple) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(l.Entries(), "", "  ")
}
