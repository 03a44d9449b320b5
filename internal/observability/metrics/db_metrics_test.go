package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBackofficeCollector_DescribesAllGauges(t *testing.T) {
	c := newBackofficeCollector(nil, nil)
	ch := make(chan *prometheus.Desc, 10)
	c.Describe(ch)
	close(ch)
	if len(ch) != 6 {
		t.Fatalf("expected 6 descriptors, got %d", len(ch))
	}

	metrics := make(chan prometheus.Metric, 10)
	c.Collect(metrics)
	close(metrics)
	if len(metrics) != 0 {
		t.Fatalf("nil db must not emit samples, got %d", len(metrics))
	}
}
