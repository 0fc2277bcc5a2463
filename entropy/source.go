// Package entropy fills buffers with random bytes for security-sensitive
// needs like session identifiers and tokens. It prefers the platform's
// cryptographic generator and degrades to a weak software fallback rather
// than ever failing, so callers get a filled buffer unconditionally. The
// only observable sign of degradation is a diagnostic log line.
package entropy

import (
	crand "crypto/rand"
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lockstep.team/rngd/rng"
)

// Source is a process-wide entropy supplier, safe for concurrent use from
// any goroutine. The backend is probed once at construction: either the
// platform generator answered and stays the primary tier, or every fill
// goes straight to the software fallback.
type Source struct {
	// strong is the platform crypto reader; nil when the probe failed
	strong io.Reader

	// fallback ingredients: a cosmetic (non simulation-critical!) generator
	// behind its own mutex, and a high-resolution monotonic clock
	weak   *rng.Randomizer
	weakMu sync.Mutex
	now    func() uint64

	// warned flips exactly once per process lifetime
	warned atomic.Bool

	log *zap.Logger
}

// NewSource probes the platform generator and returns a ready Source. The
// weak generator must be the cosmetic instance of a rng.Pair, never the
// simulation-critical one: fallback draws would desync it.
func NewSource(weak *rng.Randomizer, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := time.Now()
	s := &Source{
		strong: crand.Reader,
		weak:   weak,
		now: func() uint64 {
			// time.Since reads the monotonic clock
			return uint64(time.Since(base).Nanoseconds())
		},
		log: logger,
	}

	// capability probe: one test read decides the backend for the whole
	// process instead of branching on every call
	var probe [1]byte
	if _, err := io.ReadFull(s.strong, probe[:]); err != nil {
		s.strong = nil
		logger.Debug("entropy probe failed, software fallback selected", zap.Error(err))
	}
	return s
}

// Fill populates every byte of buf with randomness. It never fails; when
// the strong tier errors or comes up short, the whole buffer is redone by
// the fallback so partial strong output is never mixed with weak bytes.
func (s *Source) Fill(buf []byte) {
	if s.strong != nil {
		if _, err := io.ReadFull(s.strong, buf); err == nil {
			metricBytes.WithLabelValues(tierNative).Add(float64(len(buf)))
			return
		}
	}
	s.fillFallback(buf)
}

// fillFallback derives each byte from a fresh monotonic timestamp XORed
// with a cosmetic draw, mixed through xxhash. Explicitly weaker than the
// platform generator; it only exists to keep the Fill postcondition.
func (s *Source) fillFallback(buf []byte) {
	// warn loudly exactly once, quietly ever after, even when concurrent
	// callers race to be first
	if !s.warned.Swap(true) {
		s.log.Warn("cryptographically-strong random generator unavailable, using fallback")
	} else {
		s.log.Debug("cryptographically-strong random generator unavailable, using fallback")
	}
	metricFallbacks.Inc()

	s.weakMu.Lock()
	defer s.weakMu.Unlock()
	var scratch [8]byte
	for i := range buf {
		binary.LittleEndian.PutUint64(scratch[:], s.now()^uint64(s.weak.Next()))
		buf[i] = byte(xxhash.Sum64(scratch[:]))
	}
	metricBytes.WithLabelValues(tierFallback).Add(float64(len(buf)))
}

// Read implements io.Reader on top of Fill. It never returns an error,
// which makes the Source usable wherever a rand reader is expected.
func (s *Source) Read(p []byte) (int, error) {
	s.Fill(p)
	return len(p), nil
}

// Seed32 returns four random bytes as a uint32, for seeding a rng.Pair at
// session start.
func (s *Source) Seed32() uint32 {
	var b [4]byte
	s.Fill(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

// SessionID returns a random v4 UUID, suitable as a unique session or
// savegame identifier.
func (s *Source) SessionID() uuid.UUID {
	id, err := uuid.NewRandomFromReader(s)
	if err != nil {
		// unreachable, Read never fails
		panic(err)
	}
	return id
}
