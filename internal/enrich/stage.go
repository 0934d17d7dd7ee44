// Package enrich provides a small, generic pipeline abstraction that allows
// running independent steps in parallel within a stage, while enforcing
// sequential execution between stages.
package enrich

import (
	"context"
)

// Step represents a single operation that mutates the given item.
// Implementations should be safe to run concurrently with other steps in the
// same stage operating on the same item. If a step fails it should return an
// error; the pipeline reports it and continues.
//
// Example:
//
//	func addTitle(ctx context.Context, m *MyType) error { m.Title = "..."; return nil }
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups a set of steps that are safe to execute in parallel for a
// single item. All steps in a stage are started together, and the pipeline waits
// for them to complete before moving to the next stage.
//
// Note: Step functions must coordinate on shared fields if they might write to
// the same location concurrently.
type Stage[T any] struct {
	name  string
	steps []Step[T]
}

// NewStage constructs a named Stage from the provided steps. Nil steps are
// dropped, so optional steps can be passed unconditionally.
func NewStage[T any](name string, steps ...Step[T]) Stage[T] {
	s := Stage[T]{name: name}
	for _, step := range steps {
		if step != nil {
			s.steps = append(s.steps, step)
		}
	}
	return s
}
