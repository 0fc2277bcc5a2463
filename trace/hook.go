// Package trace wraps the simulation-critical randomizer with draw
// tracing for desync diagnosis. Networked peers that drift apart are
// debugged by comparing their draw sequences and call sites; this package
// produces those sequences as structured log records, live feeds and a
// persistent journal. Release builds that don't need tracing simply use
// rng.Randomizer directly, the return contracts are identical.
package trace

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"lockstep.team/rngd/rng"
)

// Record is one traced draw of the simulation-critical randomizer.
type Record struct {
	Session string `json:"session,omitempty"`
	Date    string `json:"date"`
	Frame   uint32 `json:"frame"`
	Entity  uint8  `json:"entity"`
	Caller  string `json:"caller"`
	Value   uint32 `json:"value"`
	Limit   uint32 `json:"limit,omitempty"`
}

// Snapshot describes the simulation moment a draw happened in. The host
// application supplies it; the randomizer core knows nothing about dates,
// frames or companies.
type Snapshot struct {
	Date   string // simulation calendar date, host-defined encoding
	Frame  uint32 // simulation frame counter
	Entity uint8  // currently active entity/company id
}

// SnapshotFunc returns the current Snapshot and whether the draw should be
// recorded at all. Hosts gate on their network role: record everything
// while running standalone, or while being the authoritative peer without
// a second active participant; go quiet once multiple peers are live and
// every machine would just duplicate the log.
type SnapshotFunc func() (Snapshot, bool)

// Observer receives every recorded draw. Implementations must not block;
// slow consumers get records dropped, never a stalled simulation tick.
type Observer interface {
	Observe(Record)
}

// Hook is a drop-in shim over a *rng.Randomizer that records draws. Like
// the randomizer itself it must only be driven from the simulation tick.
type Hook struct {
	rng       *rng.Randomizer
	session   string
	snap      SnapshotFunc
	log       *zap.Logger
	rate      *RateCounter
	observers []Observer
}

// NewHook wraps the given randomizer, which should be the Sim instance of
// a rng.Pair. Observers are optional; pass a *Journal and/or *Feed.
func NewHook(r *rng.Randomizer, session string, snap SnapshotFunc, logger *zap.Logger, observers ...Observer) *Hook {
	if logger == nil {
		logger = zap.NewNop()
	}
	if snap == nil {
		snap = func() (Snapshot, bool) { return Snapshot{}, true }
	}
	h := &Hook{
		rng:       r,
		session:   session,
		snap:      snap,
		log:       logger,
		rate:      NewRateCounter(5 * time.Second),
		observers: observers,
	}
	registerHookMetrics(h)
	return h
}

// Next draws the next pseudo random number, recording it when the gate
// allows. Identical return contract to rng.Randomizer.Next.
func (h *Hook) Next() uint32 {
	return h.draw(0)
}

// NextN draws the next pseudo random number scaled to [0, limit). The
// record holds the raw 32-bit draw, since that is what peers compare.
func (h *Hook) NextN(limit uint32) uint32 {
	return uint32((uint64(h.draw(limit)) * uint64(limit)) >> 32)
}

// Rate returns the current draw throughput over the sliding window.
func (h *Hook) Rate() float64 {
	return h.rate.GetRate()
}

func (h *Hook) draw(limit uint32) uint32 {
	value := h.rng.Next()

	snap, ok := h.snap()
	if !ok {
		return value
	}

	// resolve the call site two frames up, past Next/NextN
	caller := "?"
	if _, file, line, ok := runtime.Caller(2); ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	rec := Record{
		Session: h.session,
		Date:    snap.Date,
		Frame:   snap.Frame,
		Entity:  snap.Entity,
		Caller:  caller,
		Value:   value,
		Limit:   limit,
	}

	h.log.Debug("random draw",
		zap.String("session", rec.Session),
		zap.String("date", rec.Date),
		zap.Uint32("frame", rec.Frame),
		zap.Uint8("entity", rec.Entity),
		zap.String("caller", rec.Caller),
		zap.Uint32("value", rec.Value),
		zap.Uint32("limit", rec.Limit),
	)
	metricRecords.Inc()
	h.rate.Observe()

	for _, o := range h.observers {
		o.Observe(rec)
	}
	return value
}
