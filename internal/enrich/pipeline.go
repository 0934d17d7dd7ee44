package enrich

import (
	"context"
	"log"
	"sync"
)

// ErrorHandler is called for every failed step with the item and the name of
// the stage the step belongs to.
type ErrorHandler[T any] func(item *T, stage string, err error)

// Pipeline coordinates the execution of a sequence of stages for items flowing
// through a channel. For each incoming item, steps within the same stage run in
// parallel, and stages themselves run sequentially. Step errors go to the
// error handler and do not stop processing of the current item.
type Pipeline[T any] struct {
	stages  []Stage[T]
	onError ErrorHandler[T]
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied to each item in order. Errors are logged until OnError replaces the handler.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{
		stages: stages,
		onError: func(_ *T, stage string, err error) {
			log.Printf("Step failed in stage %q: %v", stage, err)
		},
	}
}

// OnError sets the handler for failed steps.
func (p *Pipeline[T]) OnError(fn ErrorHandler[T]) *Pipeline[T] {
	p.onError = fn
	return p
}

// Process consumes items from in until it is closed or ctx is done, and
// returns the number of items that went through every stage. The error
// handler may be called from several goroutines at once.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) int {
	processed := 0
	for {
		// checked first: select picks at random when both cases are ready
		if ctx.Err() != nil {
			return processed
		}
		select {
		case <-ctx.Done():
			return processed
		case item, ok := <-in:
			if !ok {
				return processed
			}
			p.run(ctx, item)
			processed++
		}
	}
}

func (p *Pipeline[T]) run(ctx context.Context, item *T) {
	for _, stage := range p.stages {
		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					p.onError(item, stage.name, err)
				}
			}(step)
		}
		wg.Wait() // stage barrier
	}
}
