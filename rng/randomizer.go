// Package rng implements the deterministic pseudo random number generator
// that drives lockstep simulation state. Every peer of a synchronized
// session seeds the same state and performs the same ordered sequence of
// draws, so the generator must be bit-exact across machines: same rotate
// amounts, same constants, same unsigned wraparound. Any divergence here
// is a desync, not acceptable entropy.
package rng

import "math/bits"

// Randomizer is a tiny two-word generator. It is a plain value type with
// no hidden state; copy it, embed it, persist it as you like.
//
// Draws are NOT safe for concurrent use. Determinism depends on a single,
// totally ordered sequence of calls per session, so the caller must drive
// all draws from one goroutine (the simulation tick). There is no internal
// locking because locking could not restore a total order anyway.
type Randomizer struct {
	s0, s1 uint32
}

// New returns a Randomizer seeded with the given value.
func New(seed uint32) *Randomizer {
	r := &Randomizer{}
	r.SetSeed(seed)
	return r
}

// Next generates the next pseudo random number in the sequence.
//
// Both words are read before either is written; the transition is not
// expressible as two independent in-place assignments.
func (r *Randomizer) Next() uint32 {
	s := r.s0
	t := r.s1

	r.s0 = s + bits.RotateLeft32(t^0x1234567F, -7) + 1
	r.s1 = bits.RotateLeft32(s, -3) - 1
	return r.s1
}

// NextN generates the next pseudo random number scaled to [0, limit),
// excluding limit itself. Scaling is done with a 64-bit multiply-high
// instead of a modulo, which is branch-free and avoids modulo bias.
// A limit of zero yields zero; callers rely on that boundary.
func (r *Randomizer) NextN(limit uint32) uint32 {
	return uint32((uint64(r.Next()) * uint64(limit)) >> 32)
}

// SetSeed (re)initializes the generator, discarding all prior state.
// Called at session start, when joining a synchronized session and after
// loading a saved session.
func (r *Randomizer) SetSeed(seed uint32) {
	r.s0 = seed
	r.s1 = seed
}

// State returns the raw state words, for persisting into savegames.
func (r *Randomizer) State() (s0, s1 uint32) {
	return r.s0, r.s1
}

// Restore overwrites the raw state words, for loading from savegames.
func (r *Randomizer) Restore(s0, s1 uint32) {
	r.s0 = s0
	r.s1 = s1
}

// A Pair bundles the two generator instances a simulation host needs: Sim
// drives everything that affects synchronized game state, Cosmetic drives
// UI, audio and other non-synced effects (and doubles as the weak entropy
// ingredient in the fallback path of package entropy). The two instances
// share nothing; interleaving draws on one never disturbs the other.
type Pair struct {
	Sim      Randomizer
	Cosmetic Randomizer
}

// SetSeed reseeds both instances from one seed. The cosmetic instance is
// decorrelated with a cheap wrapping multiply so the two streams never
// trivially coincide even though they come from the same seed input.
func (p *Pair) SetSeed(seed uint32) {
	p.Sim.SetSeed(seed)
	p.Cosmetic.SetSeed(seed * 0x1234567)
}
