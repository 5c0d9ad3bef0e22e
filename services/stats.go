package stats

import (
	"sync"
	"time"

	"github.com/hashicorp/go-metrics"
)

var (
	sink     metrics.MetricSink
	initOnce sync.Once
)

// Init sets up the in-memory metrics sink. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		inmem := metrics.NewInmemSink(100*time.Millisecond, 60*time.Minute)
		metrics.NewGlobal(metrics.DefaultConfig("who-ingest"), inmem)
		sink = inmem
	})
}

// RunStatsT scopes counters to a single ingestion run component.
type RunStatsT struct {
	Name string
}

func NewStat(name string) *RunStatsT {
	return &RunStatsT{Name: name}
}

func (rs *RunStatsT) Count(metric string, n int) {
	if sink == nil {
		return
	}
	metrics.IncrCounter([]string{rs.Name, metric}, float32(n))
}

func (rs *RunStatsT) Gauge(metric string, value float32) {
	if sink == nil {
		return
	}
	metrics.SetGauge([]string{rs.Name, metric}, value)
}
