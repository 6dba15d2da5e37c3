// Package errors provides the enriched error type gotrail attaches to
// pipeline failures.
package errors

import (
	"fmt"
	"time"
)

// OperationalError represents enhanced error information for debugging.
//
// It wraps errors with operational context including the pipeline name,
// step number, and timestamp. This pins a failure to the exact step of a
// multi-step run.
type OperationalError struct {
	Operation  string                 // What operation was being performed
	Pipeline   string                 // Which pipeline
	Step       int                    // Which step, 1-based (0 when not step-scoped)
	Timestamp  time.Time              // When error occurred
	Attributes map[string]interface{} // Additional context (optional)
	Cause      error                  // Underlying error
}

// NewOperationalError creates an OperationalError wrapping an error.
//
// Returns nil if cause is nil (no error to wrap).
//
// Example:
//
//	if err != nil {
//	    return NewOperationalError("applying step", pipeline, stepNum, err)
//	}
func NewOperationalError(operation, pipeline string, step int, cause error) *OperationalError {
	if cause == nil {
		return nil
	}

	return &OperationalError{
		Operation:  operation,
		Pipeline:   pipeline,
		Step:       step,
		Timestamp:  time.Now(),
		Attributes: nil,
		Cause:      cause,
	}
}

// NewOperationalErrorWithAttrs creates an OperationalError with additional attributes.
//
// Returns nil if cause is nil (no error to wrap).
//
// Example:
//
//	return NewOperationalErrorWithAttrs(
//	    "loading input",
//	    pipeline,
//	    0,
//	    err,
//	    map[string]interface{}{
//	        "file":   inputPath,
//	        "format": format,
//	    },
//	)
func NewOperationalErrorWithAttrs(operation, pipeline string, step int, cause error, attrs map[string]interface{}) *OperationalError {
	if cause == nil {
		return nil
	}

	return &OperationalError{
		Operation:  operation,
		Pipeline:   pipeline,
		Step:       step,
		Timestamp:  time.Now(),
		Attributes: attrs,
		Cause:      cause,
	}
}

// Error implements the error interface.
//
// Format: "[timestamp] operation: pipeline={name} step={n}: {cause}"
// If the error is not scoped to a step, the step is omitted.
func (e *OperationalError) Error() string {
	if e == nil {
		return "<nil OperationalError>"
	}

	timestamp := e.Timestamp.Format(time.RFC3339)

	var msg string
	if e.Step > 0 {
		msg = fmt.Sprintf("[%s] %s: pipeline=%s step=%d: %v",
			timestamp,
			e.Operation,
			e.Pipeline,
			e.Step,
			e.Cause)
	} else {
		msg = fmt.Sprintf("[%s] %s: pipeline=%s: %v",
			timestamp,
			e.Operation,
			e.Pipeline,
			e.Cause)
	}

	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OperationalError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
