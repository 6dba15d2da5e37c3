// Package storage provides the durable sinks that change loggers flush
// their accumulated logs to: CSV files written atomically, and SQLite
// databases that keep one log table per sink plus a registry of runs.
package storage

// Sink persists one tabular batch of log records.
// The header names the record fields; every row has one string per header
// field. Loggers build the full batch in memory and hand it over in a
// single Write, so a failed flush leaves nothing half-written.
type Sink interface {
	// Write persists the header and rows. Implementations decide whether
	// the header is repeated on successive writes to the same target.
	Write(header []string, rows [][]string) error
	// Target names the destination for notices and error messages.
	Target() string
}
