// Package pipeline composes transformation steps into logged chains and
// runs pipeline definitions loaded from YAML files.
//
// A Chain carries a dataset and an optional change logger through a
// sequence of steps. Every successful step is recorded with the logger
// before the chain moves on, so the accumulated log mirrors the chain
// step for step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/gotrail/pkg/storage"
	"github.com/dshills/gotrail/pkg/trail"
	"github.com/dshills/gotrail/pkg/transform"
)

// ErrNoLogger reports a lifecycle call that needs an attached logger
var ErrNoLogger = errors.New("no logger attached")

// Chain threads a dataset and an attached change logger through
// transformation steps. Methods are not safe for concurrent use; a chain
// belongs to one goroutine.
type Chain[T any] struct {
	id     string
	data   T
	logger trail.Logger
	steps  int
	err    error
}

// New starts a chain with no logger attached. Steps apply as plain
// function application with no recording.
func New[T any](data T) *Chain[T] {
	return &Chain[T]{
		id:   uuid.NewString(),
		data: data,
	}
}

// StartLog starts a chain with a change logger attached.
// A nil logger attaches the default Simple logger.
func StartLog[T any](data T, logger trail.Logger) *Chain[T] {
	c := New(data)
	if logger == nil {
		logger = trail.NewSimple()
	}
	c.logger = logger
	return c
}

// WithLogger replaces the attached logger and resets the step counter.
// The previous logger, if any, is detached without flushing. A nil logger
// detaches without attaching a replacement.
func (c *Chain[T]) WithLogger(logger trail.Logger) *Chain[T] {
	c.logger = logger
	c.steps = 0
	return c
}

// Then applies one transformation step and records the change.
//
// Once a step or the logger fails the chain goes inert: later calls
// return immediately and Err reports the original failure unmodified.
// When the logger rejects a step's result, the chain keeps the step's
// input as its current value.
func (c *Chain[T]) Then(ctx context.Context, step transform.Transform[T]) *Chain[T] {
	if c.err != nil {
		return c
	}

	out, err := step.Apply(ctx, c.data)
	if err != nil {
		c.err = err
		return c
	}

	if c.logger == nil {
		c.data = out
		return c
	}

	c.steps++
	meta := trail.Meta{
		Step: c.steps,
		Time: time.Now(),
		Expr: step.Source(),
		Op:   step,
	}
	if err := c.logger.Record(meta, c.data, out); err != nil {
		c.err = err
		return c
	}

	c.data = out
	return c
}

// ThenFunc applies a named Go function as the next step.
func (c *Chain[T]) ThenFunc(ctx context.Context, name string, fn func(context.Context, T) (T, error)) *Chain[T] {
	return c.Then(ctx, transform.Func(name, fn))
}

// Value returns the chain's current dataset.
func (c *Chain[T]) Value() T {
	return c.data
}

// Err returns the first error the chain hit, or nil.
func (c *Chain[T]) Err() error {
	return c.err
}

// Steps returns how many steps have been recorded against the current
// logger attachment.
func (c *Chain[T]) Steps() int {
	return c.steps
}

// ID returns the chain's unique identity.
func (c *Chain[T]) ID() string {
	return c.id
}

// Logger returns the attached logger, or nil after a stop.
func (c *Chain[T]) Logger() trail.Logger {
	return c.logger
}

// DumpOptions control where and how Dump flushes the accumulated log.
type DumpOptions struct {
	// Path of the sink file; empty uses the logger's default filename
	Path string
	// Append adds to an existing sink instead of replacing it
	Append bool
	// Stop detaches the logger after a successful flush
	Stop bool
	// Sink overrides Path and Append with an explicit destination
	Sink storage.Sink
}

// Dump flushes the accumulated log entries to a sink.
//
// A chain that already failed still dumps whatever was recorded before
// the failure. With Stop set the logger is detached after a successful
// flush, and later dumps fail with ErrNoLogger.
func (c *Chain[T]) Dump(opts DumpOptions) error {
	if c.logger == nil {
		return ErrNoLogger
	}

	flushOpts := trail.FlushOptions{
		Path:   opts.Path,
		Append: opts.Append,
		Sink:   opts.Sink,
	}
	if err := c.logger.Flush(flushOpts); err != nil {
		return fmt.Errorf("failed to dump change log: %w", err)
	}

	if opts.Stop {
		c.logger = nil
	}
	return nil
}

// Stop detaches the logger without flushing and returns the final value
// together with the first error the chain hit, if any. Stopping a chain
// with no logger attached is a usage error.
func (c *Chain[T]) Stop() (T, error) {
	if c.logger == nil && c.err == nil {
		return c.data, ErrNoLogger
	}
	c.logger = nil
	return c.data, c.err
}
