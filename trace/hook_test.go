package trace

import (
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"lockstep.team/rngd/rng"
)

// collector gathers all records synchronously for assertions
type collector struct {
	mu   sync.Mutex
	recs []Record
}

func (c *collector) Observe(rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
}

func (c *collector) records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record{}, c.recs...)
}

func TestHookDrawEquivalence(t *testing.T) {
	// the hook must be a drop-in shim: same values as the plain randomizer
	plain := rng.New(0xABCD)
	hook := NewHook(rng.New(0xABCD), "s", nil, nil)

	for i := 0; i < 1000; i++ {
		switch i % 3 {
		case 0:
			if got, want := hook.Next(), plain.Next(); got != want {
				t.Fatalf("draw %d: hook.Next() = %#x, want %#x", i, got, want)
			}
		case 1:
			if got, want := hook.NextN(6), plain.NextN(6); got != want {
				t.Fatalf("draw %d: hook.NextN(6) = %d, want %d", i, got, want)
			}
		default:
			if got, want := hook.NextN(0), plain.NextN(0); got != want || got != 0 {
				t.Fatalf("draw %d: hook.NextN(0) = %d, want 0", i, got)
			}
		}
	}
}

func TestHookRecordsSnapshotAndCaller(t *testing.T) {
	snap := func() (Snapshot, bool) {
		return Snapshot{Date: "0066fe23", Frame: 1234, Entity: 3}, true
	}
	col := &collector{}
	hook := NewHook(rng.New(1), "capture-1", snap, nil, col)

	first := hook.Next()
	hook.NextN(100)

	recs := col.records()
	if len(recs) != 2 {
		t.Fatalf("recorded %d draws, want 2", len(recs))
	}
	rec := recs[0]
	if rec.Session != "capture-1" || rec.Date != "0066fe23" || rec.Frame != 1234 || rec.Entity != 3 {
		t.Errorf("record context = %+v, want injected snapshot values", rec)
	}
	if rec.Value != first || rec.Value != 0x1FFFFFFF {
		t.Errorf("record value = %#x, want %#x", rec.Value, first)
	}
	if rec.Limit != 0 {
		t.Errorf("record limit = %d, want 0 for plain Next", rec.Limit)
	}
	if !strings.HasPrefix(rec.Caller, "hook_test.go:") {
		t.Errorf("record caller = %q, want this test file", rec.Caller)
	}
	if recs[1].Limit != 100 {
		t.Errorf("scaled record limit = %d, want 100", recs[1].Limit)
	}
	if recs[1].Value != 0xDF848D14 {
		t.Errorf("scaled record holds %#x, want the raw draw 0xDF848D14", recs[1].Value)
	}
}

func TestHookGateSuppressesRecords(t *testing.T) {
	gateOpen := true
	snap := func() (Snapshot, bool) { return Snapshot{}, gateOpen }

	core, logs := observer.New(zapcore.DebugLevel)
	col := &collector{}
	hook := NewHook(rng.New(9), "s", snap, zap.New(core), col)

	hook.Next()
	gateOpen = false
	closedValue := hook.Next()
	gateOpen = true
	hook.Next()

	if got := len(col.records()); got != 2 {
		t.Errorf("observed %d records, want 2 (gate closed for one draw)", got)
	}
	if logs.Len() != 2 {
		t.Errorf("logged %d records, want 2", logs.Len())
	}

	// the suppressed draw still advances and returns from the same sequence
	want := rng.New(9)
	want.Next()
	if v := want.Next(); closedValue != v {
		t.Errorf("gated draw = %#x, want %#x; gating must not skip draws", closedValue, v)
	}
}

func TestHookLogFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hook := NewHook(rng.New(1), "s", func() (Snapshot, bool) {
		return Snapshot{Date: "00000001", Frame: 7, Entity: 1}, true
	}, zap.New(core))

	hook.Next()

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("logged %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["frame"] != uint32(7) {
		t.Errorf("frame field = %v, want 7", fields["frame"])
	}
	if fields["value"] != uint32(0x1FFFFFFF) {
		t.Errorf("value field = %v, want 0x1FFFFFFF", fields["value"])
	}
	if fields["caller"] == "" {
		t.Error("caller field missing from log record")
	}
}
