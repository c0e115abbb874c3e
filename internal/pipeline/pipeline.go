package pipeline

import (
	"context"
	"errors"
	"sync"
)

// Pipeline applies its stages, in order, to one item at a time.
type Pipeline[T any] struct {
	stages []Stage[T]
}

// NewPipeline constructs a Pipeline from the provided stages.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Apply runs every stage on item. All steps of a stage are started together
// and finish before the next stage begins. A failing step does not stop its
// siblings or later stages; all step errors are returned joined.
func (p *Pipeline[T]) Apply(ctx context.Context, item *T) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	for _, stage := range p.stages {
		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}(step)
		}
		wg.Wait() // stage barrier
	}
	return errors.Join(errs...)
}
