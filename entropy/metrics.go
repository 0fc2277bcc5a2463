package entropy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// package-level metrics so multiple Sources never double-register

var (
	// random bytes served, partitioned by the tier that produced them
	metricBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rngd_entropy_bytes_total",
		Help: "random bytes served; partitioned by entropy tier",
	}, []string{"tier"})

	// buffer fills that had to degrade to the software fallback
	metricFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rngd_entropy_fallbacks_total",
		Help: "buffer fills that degraded to the software fallback",
	})
)

const (
	tierNative   = "native"
	tierFallback = "fallback"
)
