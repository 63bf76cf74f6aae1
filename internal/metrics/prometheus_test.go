package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/rc1405/fiddler-sub001/internal/plugin"
)

func TestPrometheus_RecordAccumulatesDeltas(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.Record(plugin.Counters{Completed: 3, InFlight: 2})
	p.Record(plugin.Counters{Completed: 5, InFlight: 0})

	var m dto.Metric
	if err := p.completed.Write(&m); err != nil {
		t.Fatalf("unexpected error reading metric: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 5 {
		t.Fatalf("expected cumulative counter value 5, got %v", got)
	}

	var gaugeMetric dto.Metric
	if err := p.inFlight.Write(&gaugeMetric); err != nil {
		t.Fatalf("unexpected error reading gauge: %v", err)
	}
	if got := gaugeMetric.GetGauge().GetValue(); got != 0 {
		t.Fatalf("expected gauge to reflect latest snapshot (0), got %v", got)
	}
}
