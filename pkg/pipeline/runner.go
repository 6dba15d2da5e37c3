package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/gotrail/pkg/errors"
	"github.com/dshills/gotrail/pkg/storage"
	"github.com/dshills/gotrail/pkg/table"
	"github.com/dshills/gotrail/pkg/validation"
)

// RunResult summarizes one pipeline run.
type RunResult struct {
	// Name is the pipeline name from the definition
	Name string
	// RunID identifies the run in the SQLite sink, empty without one
	RunID string
	// Steps is the number of transformation steps applied
	Steps int
	// Rows is the row count of the final dataset
	Rows int
	// Duration covers loading, transforming, and flushing
	Duration time.Duration
	// LogTargets lists every sink the change log was flushed to
	LogTargets []string
	// OutputFile is the written output path, empty when none configured
	OutputFile string
}

// Run executes a pipeline definition with every file path resolved inside
// baseDir, typically the definition's directory. Step failures come back
// as an OperationalError naming the pipeline and the 1-based step.
func Run(ctx context.Context, def *Definition, baseDir string) (*RunResult, error) {
	start := time.Now()

	validator, err := validation.NewPathValidator(baseDir)
	if err != nil {
		return nil, fmt.Errorf("invalid base directory: %w", err)
	}

	data, err := loadInput(def, validator)
	if err != nil {
		return nil, errors.NewOperationalErrorWithAttrs("loading input", def.Name, 0, err, map[string]interface{}{
			"file":   def.Input.File,
			"format": def.Input.Format,
		})
	}

	chain := New(data)
	if def.Log != nil {
		logger, err := def.Log.NewLogger()
		if err != nil {
			return nil, errors.NewOperationalError("configuring logger", def.Name, 0, err)
		}
		chain.WithLogger(logger)
	}

	for i, step := range def.Steps {
		chain.Then(ctx, step)
		if err := chain.Err(); err != nil {
			return nil, errors.NewOperationalErrorWithAttrs("applying step", def.Name, i+1, err, map[string]interface{}{
				"source": step.Source(),
			})
		}
	}

	result := &RunResult{
		Name:  def.Name,
		Steps: chain.Steps(),
		Rows:  chain.Value().NumRows(),
	}

	if def.Log != nil {
		targets, runID, err := flushLog(chain, def, validator)
		if err != nil {
			return nil, errors.NewOperationalError("flushing change log", def.Name, 0, err)
		}
		result.LogTargets = targets
		result.RunID = runID
	}

	if def.Output != nil {
		outPath, err := writeOutput(chain.Value(), def, validator)
		if err != nil {
			return nil, errors.NewOperationalError("writing output", def.Name, 0, err)
		}
		result.OutputFile = outPath
	}

	result.Duration = time.Since(start)
	return result, nil
}

// loadInput reads the pipeline's input dataset.
func loadInput(def *Definition, validator *validation.PathValidator) (*table.Table, error) {
	path, err := validator.Validate(def.Input.File)
	if err != nil {
		return nil, err
	}

	switch def.Input.Format {
	case FormatJSON:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return table.FromJSONPath(data, def.Input.JSONPath)
	default:
		return table.ReadCSVFile(path)
	}
}

// flushLog writes the accumulated change log to every configured sink.
func flushLog(chain *Chain[*table.Table], def *Definition, validator *validation.PathValidator) ([]string, string, error) {
	logPath, err := validator.Validate(def.Log.SinkFile())
	if err != nil {
		return nil, "", err
	}
	if err := chain.Dump(DumpOptions{Path: logPath, Append: def.Log.Append}); err != nil {
		return nil, "", err
	}
	targets := []string{logPath}

	var runID string
	if def.Log.DB != "" {
		dbPath, err := validator.Validate(def.Log.DB)
		if err != nil {
			return nil, "", err
		}
		sink, err := storage.NewSQLiteSink(dbPath, def.Log.Table)
		if err != nil {
			return nil, "", err
		}
		if err := chain.Dump(DumpOptions{Sink: sink}); err != nil {
			sink.Close()
			return nil, "", err
		}
		runID = sink.RunID()
		targets = append(targets, sink.Target())
		if err := sink.Close(); err != nil {
			return nil, "", err
		}
	}

	return targets, runID, nil
}

// writeOutput writes the final dataset as CSV.
func writeOutput(t *table.Table, def *Definition, validator *validation.PathValidator) (string, error) {
	outPath, err := validator.Validate(def.Output.File)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := t.WriteCSVFile(outPath); err != nil {
		return "", err
	}
	return outPath, nil
}
