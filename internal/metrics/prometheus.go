// Package metrics provides the concrete plugin.Metrics implementation the
// runtime publishes its aggregate counters to (spec.md §4.7, SPEC_FULL.md
// §5's domain stack). Grounded on the real Benthos dependency manifest
// (other_examples/manifests/redpanda-data-benthos/go.mod), which vendors
// github.com/prometheus/client_golang for exactly this purpose.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rc1405/fiddler-sub001/internal/plugin"
)

// Prometheus adapts a runtime Counters snapshot onto a small set of
// Prometheus gauges/counters, registered against a caller-supplied registry
// so multiple pipelines in one process don't collide on metric names.
type Prometheus struct {
	completed          prometheus.Counter
	processErrors      prometheus.Counter
	outputErrors       prometheus.Counter
	duplicatesRejected prometheus.Counter
	inFlight           prometheus.Gauge

	lastCompleted     uint64
	lastProcessErrors uint64
	lastOutputErrors  uint64
	lastDuplicates    uint64
}

// NewPrometheus registers fiddler's runtime metrics against reg and returns
// a plugin.Metrics implementation backed by them. label distinguishes
// multiple concurrently running pipelines (e.g. the document's optional
// top-level label).
func NewPrometheus(reg prometheus.Registerer, label string) (*Prometheus, error) {
	constLabels := prometheus.Labels{"pipeline": label}

	p := &Prometheus{
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fiddler",
			Name:        "messages_completed_total",
			Help:        "Messages successfully delivered to the output.",
			ConstLabels: constLabels,
		}),
		processErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fiddler",
			Name:        "process_errors_total",
			Help:        "Messages that failed during processing.",
			ConstLabels: constLabels,
		}),
		outputErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fiddler",
			Name:        "output_errors_total",
			Help:        "Messages that failed to write to the output.",
			ConstLabels: constLabels,
		}),
		duplicatesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fiddler",
			Name:        "duplicate_registrations_rejected_total",
			Help:        "Duplicate message ids rejected by the lifecycle tracker.",
			ConstLabels: constLabels,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "fiddler",
			Name:        "messages_in_flight",
			Help:        "Messages registered with the tracker but not yet acknowledged.",
			ConstLabels: constLabels,
		}),
	}

	for _, c := range []prometheus.Collector{p.completed, p.processErrors, p.outputErrors, p.duplicatesRejected, p.inFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Record implements plugin.Metrics by setting each gauge/counter to the
// latest cumulative value the runtime observed. Counters in Counters are
// already cumulative snapshots (internal/tracker.Snapshot), so Record uses
// Add(delta) against the last-seen value to stay faithful to Prometheus
// counter semantics (monotonically increasing, never set directly).
func (p *Prometheus) Record(c plugin.Counters) {
	p.inFlight.Set(float64(c.InFlight))
	addDelta(p.completed, &p.lastCompleted, c.Completed)
	addDelta(p.processErrors, &p.lastProcessErrors, c.ProcessErrors)
	addDelta(p.outputErrors, &p.lastOutputErrors, c.OutputErrors)
	addDelta(p.duplicatesRejected, &p.lastDuplicates, c.DuplicatesRejected)
}

// addDelta advances a monotonic Prometheus counter by the difference
// between a newly observed cumulative value and the last one recorded,
// since internal/tracker.Snapshot reports cumulative totals rather than
// per-interval deltas.
func addDelta(counter prometheus.Counter, last *uint64, current uint64) {
	if current > *last {
		counter.Add(float64(current - *last))
		*last = current
	}
}
