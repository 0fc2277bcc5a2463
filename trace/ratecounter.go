package trace

import (
	"sync"
	"time"
)

// RateCounter observes the draw rate manually, as extracting a rate from
// a Prometheus counter inside the process is unreasonably complicated.
type RateCounter struct {
	mu           sync.Mutex
	observations []time.Time
	windowlen    time.Duration
}

func NewRateCounter(window time.Duration) *RateCounter {
	return &RateCounter{
		observations: make([]time.Time, 0),
		windowlen:    window,
	}
}

// Observe adds a new observation to this counter
func (r *RateCounter) Observe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, time.Now())
	r.truncate()
}

// Clean up old observations by slicing from the oldest observation
// that is still within the window; loop exits as soon as the first
// one is newer than that.
func (r *RateCounter) truncate() {
	cutoff := time.Now().Add(-r.windowlen)
	for len(r.observations) > 0 && r.observations[0].Before(cutoff) {
		r.observations = r.observations[1:]
	}
}

// GetRate returns the current rate per second. Truncates first, so stale
// observations age out even when there were no recent draws.
func (r *RateCounter) GetRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.truncate()
	return float64(len(r.observations)) / r.windowlen.Seconds()
}
