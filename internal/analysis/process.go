package analysis

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/banshee-data/detsim/internal/event"
	"github.com/banshee-data/detsim/internal/monitoring"
)

// ErrNoMetadata is returned for events without a metadata context.
var ErrNoMetadata = errors.New("event has no metadata context")

// ObservableSink receives named scalar results.
type ObservableSink interface {
	Set(name string, value float64)
}

// Process is one analysis pass.
type Process interface {
	Name() string
	// Process returns the event handed to the next pass, which is ev
	// itself or a modified copy.
	Process(ev *event.Event, sink ObservableSink) (*event.Event, error)
}

// Observables is an in-memory ObservableSink. It is safe for concurrent
// use.
type Observables struct {
	mu     sync.Mutex
	values map[string]float64
}

// NewObservables returns an empty sink.
func NewObservables() *Observables {
	return &Observables{values: make(map[string]float64)}
}

// Set records value under name, replacing an earlier value.
func (o *Observables) Set(name string, value float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.values[name] = value
}

// Get returns the value recorded under name.
func (o *Observables) Get(name string) (float64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.values[name]
	return v, ok
}

// Names returns the recorded names in sorted order.
func (o *Observables) Names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.values))
	for n := range o.values {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the recorded values.
func (o *Observables) Map() map[string]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]float64, len(o.values))
	for n, v := range o.values {
		out[n] = v
	}
	return out
}

// Run applies passes in order, feeding each the event returned by the
// previous one, and returns the final event.
func Run(ev *event.Event, passes []Process, sink ObservableSink, metrics *monitoring.Metrics) (*event.Event, error) {
	if ev.Metadata() == nil {
		return nil, fmt.Errorf("run %d event %d: %w", ev.RunID, ev.EventID, ErrNoMetadata)
	}
	current := ev
	for _, p := range passes {
		next, err := p.Process(current, sink)
		metrics.ObservePass(p.Name(), err)
		if err != nil {
			return nil, fmt.Errorf("%s on event %d.%d: %w", p.Name(), ev.EventID, ev.SubEventID, err)
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}
