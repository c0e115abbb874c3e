// Package pipeline runs a sequence of stages over single items. Steps of a
// stage run concurrently for the same item; stages run one after another.
package pipeline

import (
	"context"
)

// Step is one operation applied to an item. Steps of the same stage run
// concurrently on the same item and must not write to shared fields without
// coordination.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that may run in parallel for one item.
type Stage[T any] struct {
	steps []Step[T]
}

// NewStage constructs a Stage from the provided steps.
func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}

// Len returns the number of steps in the stage.
func (s Stage[T]) Len() int {
	return len(s.steps)
}
