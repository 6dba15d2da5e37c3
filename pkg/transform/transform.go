// Package transform provides the step vocabulary for gotrail pipelines:
// labeled Go functions, expression steps evaluated per row with the
// expr-lang engine, and structural column operations. Every step knows its
// own textual form, which is what change loggers record next to the step
// number.
package transform

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// Transform applies one pipeline step to a dataset.
//
// Implementations must leave the input value untouched and return a fresh
// value, or the input itself when nothing changed. Source returns the
// textual form of the step for change logs: exact for expression steps,
// best effort for Go functions.
type Transform[T any] interface {
	Apply(ctx context.Context, data T) (T, error)
	Source() string
}

// funcStep wraps a Go function as a named step
type funcStep[T any] struct {
	name string
	fn   func(context.Context, T) (T, error)
}

// Func wraps a fallible Go function as a named step.
// An empty name falls back to the function's runtime name, which for
// anonymous functions is only a compiler-generated label; give closures an
// explicit name when the log should read well.
func Func[T any](name string, fn func(context.Context, T) (T, error)) Transform[T] {
	if name == "" {
		name = funcName(fn)
	}
	return &funcStep[T]{name: name, fn: fn}
}

// Pure wraps an infallible function as a named step.
func Pure[T any](name string, fn func(T) T) Transform[T] {
	if name == "" {
		name = funcName(fn)
	}
	return Func(name, func(_ context.Context, data T) (T, error) {
		return fn(data), nil
	})
}

// Apply runs the wrapped function.
func (s *funcStep[T]) Apply(ctx context.Context, data T) (T, error) {
	if s.fn == nil {
		var zero T
		return zero, ErrNilFunc
	}
	return s.fn(ctx, data)
}

// Source returns the step's name.
func (s *funcStep[T]) Source() string {
	return s.name
}

// funcName derives a best-effort label from a function's runtime name.
func funcName(fn interface{}) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return "anonymous"
	}

	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "anonymous"
	}

	name := rf.Name() // e.g. github.com/acme/pipeline.Normalize
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
