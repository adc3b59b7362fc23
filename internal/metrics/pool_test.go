package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPoolCollector_DescribeEmitsAllDescriptors(t *testing.T) {
	collector := NewPoolCollector("primary", nil)

	ch := make(chan *prometheus.Desc, 20)
	collector.Describe(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	if count != 7 {
		t.Errorf("descriptor count: got %d, want 7", count)
	}
}

func TestPoolCollector_CollectNilPool(t *testing.T) {
	collector := NewPoolCollector("primary", nil)

	ch := make(chan prometheus.Metric, 20)
	collector.Collect(ch)
	close(ch)

	count := 0
	for range ch {
		count++
	}
	if count != 0 {
		t.Errorf("metric count with nil pool: got %d, want 0", count)
	}
}
