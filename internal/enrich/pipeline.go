package enrich

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds how many items are enriched at once when no explicit
// limit is configured.
const DefaultWorkers = 8

// Pipeline applies a sequence of stages to every item it is given. Items are
// processed concurrently, up to the worker limit. For a single item, steps
// within a stage run in parallel and stages run one after another. Step
// errors are logged and never stop processing of the item or its siblings.
//
// Pipeline is generic over the item type T.
type Pipeline[T any] struct {
	stages  []Stage[T]
	workers int
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied to each item in order.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages, workers: DefaultWorkers}
}

// WithWorkers sets how many items may be in flight at once. Values below one
// mean one.
func (p *Pipeline[T]) WithWorkers(n int) *Pipeline[T] {
	if n < 1 {
		n = 1
	}
	p.workers = n
	return p
}

// Process consumes items from in until it is closed and returns once every
// received item has passed through all stages. When ctx is canceled, items
// that have not started a stage yet skip it.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) {
	var g errgroup.Group
	g.SetLimit(p.workers)
	for item := range in {
		g.Go(func() error {
			p.run(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
}

// Apply runs the pipeline over a slice of items.
func (p *Pipeline[T]) Apply(ctx context.Context, items []*T) {
	in := make(chan *T)
	go func() {
		defer close(in)
		for _, item := range items {
			in <- item
		}
	}()
	p.Process(ctx, in)
}

func (p *Pipeline[T]) run(ctx context.Context, item *T) {
	for _, stage := range p.stages {
		if ctx.Err() != nil {
			return
		}
		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					log.Printf("Step failed: %v", err)
				}
			}(step)
		}
		wg.Wait() // stage barrier
	}
}
