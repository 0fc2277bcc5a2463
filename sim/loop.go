// Package sim runs a synthetic simulation loop so the capture daemon has
// a real draw sequence flowing through the trace pipeline. It stands in
// for the game host: it owns the frame counter, a cycling active entity,
// a calendar date derived from frames, and the network-role gate that
// decides whether draws get recorded.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lockstep.team/rngd/rng"
	"lockstep.team/rngd/trace"
)

// frames per simulated calendar day
const framesPerDay = 74

// Loop drives a deterministic draw workload at a fixed tick rate. All
// mutation happens on the Run goroutine; the only concurrent readers are
// the hook's snapshot calls, which Run itself triggers.
type Loop struct {
	pair     *rng.Pair
	hook     *trace.Hook
	tickrate int

	frame    uint32
	entity   uint8
	entities uint8

	// network role bits feeding the trace gate
	networked     bool
	authoritative bool
	peerActive    bool
}

// NewLoop builds a loop around the pair's simulation-critical instance
// and wires the trace hook with this loop's snapshot as context source.
func NewLoop(pair *rng.Pair, session string, tickrate int, logger *zap.Logger, observers ...trace.Observer) *Loop {
	l := &Loop{
		pair:     pair,
		tickrate: tickrate,
		entities: 8,
	}
	l.hook = trace.NewHook(&pair.Sim, session, l.snapshot, logger, observers...)
	return l
}

// Hook exposes the traced draw interface, for hosts that want to draw
// outside the synthetic workload.
func (l *Loop) Hook() *trace.Hook {
	return l.hook
}

// SetNetworkRole updates the session topology the gate reasons about.
func (l *Loop) SetNetworkRole(networked, authoritative, peerActive bool) {
	l.networked = networked
	l.authoritative = authoritative
	l.peerActive = peerActive
}

// snapshot supplies the simulation moment for trace records. Records flow
// while running standalone, or while being the authoritative peer before
// a second peer becomes active; after that every machine would log the
// same sequence and the trace goes quiet.
func (l *Loop) snapshot() (trace.Snapshot, bool) {
	gate := !l.networked || (l.authoritative && !l.peerActive)
	return trace.Snapshot{
		Date:   fmt.Sprintf("%08x", l.frame/framesPerDay),
		Frame:  l.frame,
		Entity: l.entity,
	}, gate
}

// Run ticks the loop until the context is cancelled. A tickrate of zero
// or less disables the synthetic workload entirely.
func (l *Loop) Run(ctx context.Context) {
	if l.tickrate <= 0 {
		return
	}
	ticker := time.NewTicker(time.Second / time.Duration(l.tickrate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}

// Tick advances one simulation frame and performs a representative draw
// mix: an event chance roll, a scaled roll per active entity, and some
// cosmetic draws that never touch the critical sequence. Given the same
// seed, the sequence of ticks is fully deterministic.
func (l *Loop) Tick() {
	l.frame++
	l.entity = uint8(l.frame>>3) % l.entities

	// event chance roll, occasionally followed by a magnitude roll
	if l.hook.NextN(256) < 16 {
		l.hook.NextN(1 << 16)
	}
	l.hook.Next()

	// non-synced presentation effects draw from the cosmetic instance
	l.pair.Cosmetic.NextN(2)
}
