package monitoring

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors updated while events are ingested and
// analysed. A nil *Metrics is valid and records nothing.
type Metrics struct {
	StepsIngested   prometheus.Counter
	EventsEmitted   prometheus.Counter
	SubEventsSplit  prometheus.Counter
	EventsDiscarded prometheus.Counter
	TracksPerEvent  prometheus.Histogram
	EventEnergyKeV  prometheus.Histogram
	PassesRun       *prometheus.CounterVec
	PassFailures    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Passing a
// nil registerer creates unregistered collectors, which is what most tests
// want.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StepsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "detsim", Subsystem: "ingest", Name: "steps_total",
			Help: "Transport steps appended to tracks.",
		}),
		EventsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "detsim", Subsystem: "ingest", Name: "events_total",
			Help: "Events (including sub-events) handed to the sink.",
		}),
		SubEventsSplit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "detsim", Subsystem: "ingest", Name: "sub_events_total",
			Help: "Sub-events started because the hit time gap exceeded the delay.",
		}),
		EventsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "detsim", Subsystem: "ingest", Name: "events_discarded_total",
			Help: "Events dropped by the storage policy.",
		}),
		TracksPerEvent: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "detsim", Subsystem: "ingest", Name: "tracks_per_event",
			Help:    "Number of tracks in each emitted event.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		EventEnergyKeV: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "detsim", Subsystem: "ingest", Name: "event_energy_kev",
			Help:    "Total deposited energy per emitted event (keV).",
			Buckets: prometheus.ExponentialBuckets(1, 10, 7),
		}),
		PassesRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detsim", Subsystem: "analysis", Name: "passes_total",
			Help: "Analysis passes executed, by pass name.",
		}, []string{"pass"}),
		PassFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detsim", Subsystem: "analysis", Name: "pass_failures_total",
			Help: "Analysis passes that returned an error, by pass name.",
		}, []string{"pass"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.StepsIngested, m.EventsEmitted, m.SubEventsSplit, m.EventsDiscarded,
		m.TracksPerEvent, m.EventEnergyKeV, m.PassesRun, m.PassFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// ObserveEvent records one emitted event.
func (m *Metrics) ObserveEvent(tracks int, energyKeV float64) {
	if m == nil {
		return
	}
	m.EventsEmitted.Inc()
	m.TracksPerEvent.Observe(float64(tracks))
	m.EventEnergyKeV.Observe(energyKeV)
}

// IncSteps counts appended steps.
func (m *Metrics) IncSteps() {
	if m == nil {
		return
	}
	m.StepsIngested.Inc()
}

// IncSubEvents counts sub-event splits.
func (m *Metrics) IncSubEvents() {
	if m == nil {
		return
	}
	m.SubEventsSplit.Inc()
}

// IncDiscarded counts events dropped by the storage policy.
func (m *Metrics) IncDiscarded() {
	if m == nil {
		return
	}
	m.EventsDiscarded.Inc()
}

// ObservePass records the outcome of one analysis pass execution.
func (m *Metrics) ObservePass(name string, err error) {
	if m == nil {
		return
	}
	m.PassesRun.WithLabelValues(name).Inc()
	if err != nil {
		m.PassFailures.WithLabelValues(name).Inc()
	}
}
