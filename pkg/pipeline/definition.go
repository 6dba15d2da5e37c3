package pipeline

import (
	"fmt"

	"github.com/dshills/gotrail/pkg/table"
	"github.com/dshills/gotrail/pkg/trail"
	"github.com/dshills/gotrail/pkg/transform"
)

// Log types recognized in pipeline definitions
const (
	LogSimple   = "simple"
	LogCellwise = "cellwise"
)

// Input formats recognized in pipeline definitions
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Definition is a pipeline loaded from a YAML file: an input dataset, an
// ordered list of transformation steps, an optional change-log
// configuration, and an optional output file.
//
// All file paths are relative to the definition's directory; the runner
// refuses paths that escape it.
type Definition struct {
	// Name identifies the pipeline in logs and errors
	Name string
	// Input names the dataset the pipeline starts from
	Input Input
	// Log configures change tracking; nil runs the pipeline unlogged
	Log *LogConfig
	// Steps are the compiled transformations in definition order
	Steps []transform.Transform[*table.Table]
	// Output optionally names a file for the final dataset
	Output *Output
}

// Input names the dataset file a pipeline starts from.
type Input struct {
	// File is the dataset path relative to the definition's directory
	File string
	// Format is FormatCSV or FormatJSON; parsing defaults it to CSV
	Format string
	// JSONPath optionally selects the tabular part of a JSON document
	JSONPath string
}

// LogConfig selects and configures the change logger for a run.
type LogConfig struct {
	// Type is LogSimple or LogCellwise
	Type string
	// Key is the cellwise row-identity column
	Key string
	// Ignore lists columns the cellwise logger skips
	Ignore []string
	// Verbose emits a completion notice on flush; parsing defaults it on
	Verbose bool
	// File is the log sink path; empty uses the logger's default filename
	File string
	// Append adds to an existing sink file instead of replacing it
	Append bool
	// DB optionally names a SQLite database to log into as well
	DB string
	// Table is the SQLite log table name, required with DB
	Table string
}

// Output names the file the final dataset is written to.
type Output struct {
	// File is the output path relative to the definition's directory
	File string
}

// NewLogger builds the configured change logger.
func (l *LogConfig) NewLogger() (trail.Logger, error) {
	switch l.Type {
	case "", LogSimple:
		return trail.NewSimple(trail.SimpleVerbose(l.Verbose)), nil
	case LogCellwise:
		opts := []trail.CellwiseOption{trail.CellwiseVerbose(l.Verbose)}
		if len(l.Ignore) > 0 {
			opts = append(opts, trail.CellwiseIgnore(l.Ignore...))
		}
		return trail.NewCellwise(l.Key, opts...)
	default:
		return nil, fmt.Errorf("unknown log type: %s", l.Type)
	}
}

// SinkFile returns the log sink path, falling back to the logger's
// default filename.
func (l *LogConfig) SinkFile() string {
	if l.File != "" {
		return l.File
	}
	if l.Type == LogCellwise {
		return trail.DefaultCellwiseFile
	}
	return trail.DefaultSimpleFile
}
