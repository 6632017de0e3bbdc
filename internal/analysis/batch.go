package analysis

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/monitoring"
)

// Result is the outcome of the pass chain on one event.
type Result struct {
	Event       *event.Event // final event of the chain
	Observables *Observables
}

// RunBatch runs the pass chain over events on up to workers goroutines
// (GOMAXPROCS when workers <= 0). Each event gets its own sink and results
// keep the input order. The first error cancels the remaining work.
func RunBatch(ctx context.Context, events []*event.Event, passes []Process, workers int, metrics *monitoring.Metrics) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(events))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ev := range events {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			sink := NewObservables()
			out, err := Run(ev, passes, sink, metrics)
			if err != nil {
				return err
			}
			results[i] = Result{Event: out, Observables: sink}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
