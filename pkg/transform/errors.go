package transform

import "errors"

// Sentinel errors shared across all transformation steps
var (
	// Expression errors
	ErrInvalidExpression = errors.New("invalid expression syntax")
	ErrUndefinedColumn   = errors.New("expression references an undefined column")
	ErrTypeMismatch      = errors.New("type mismatch in expression result")

	// Step construction errors
	ErrEmptySelection = errors.New("select requires at least one column")
	ErrNilFunc        = errors.New("step function cannot be nil")
)
