package trace

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// traced draws across all hooks
	metricRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rngd_trace_records_total",
		Help: "recorded draws of the simulation-critical randomizer",
	})

	// currently connected live-feed subscribers
	metricSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rngd_trace_subscribers",
		Help: "currently subscribed live trace consumers",
	})

	// records dropped because a feed inbox or subscriber was congested
	metricFeedDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rngd_trace_feed_dropped_total",
		Help: "trace records dropped on congested feed channels",
	})
)

// the draw-rate gauge reads from a live hook, so it can only be bound once
var hookMetricsOnce sync.Once

func registerHookMetrics(h *Hook) {
	hookMetricsOnce.Do(func() {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "rngd_trace_draw_rate",
			Help: "traced draws per second over a sliding window",
		}, h.Rate)
	})
}
