package trace

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Journal persists traced draw sequences in a BoltDB file, one bucket per
// capture session with big-endian sequence numbers as keys so records
// iterate in draw order. Journals from two diverged peers are compared
// offline with FirstDivergence to find the draw where they split.
type Journal struct {
	db  *bolt.DB
	log *zap.Logger
}

// OpenJournal opens (or creates) the journal database at path.
func OpenJournal(path string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("journal: cannot open db: %w", err)
	}
	return &Journal{db, logger}, nil
}

// Observe implements Observer. Persistence errors are logged, never
// surfaced: a broken journal must not take the draw path down with it.
func (j *Journal) Observe(rec Record) {
	if err := j.Append(rec); err != nil {
		j.log.Error("journal append failed", zap.Error(err))
	}
}

// Append writes one record to the end of its session's sequence.
func (j *Journal) Append(rec Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("journal: marshal record: %w", err)
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(sessionBucket(rec.Session))
		if err != nil {
			return fmt.Errorf("journal: create bucket: %w", err)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("journal: next sequence: %w", err)
		}
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return b.Put(key[:], blob)
	})
}

// Records returns the full draw sequence of a session in draw order.
// An unknown session yields an empty slice, not an error.
func (j *Journal) Records(session string) (records []Record, err error) {
	err = j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket(session))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("journal: unmarshal record: %w", err)
			}
			records = append(records, rec)
			return nil
		})
	})
	return
}

// Sessions lists all journaled capture sessions.
func (j *Journal) Sessions() (sessions []string, err error) {
	err = j.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if rest, ok := bytes.CutPrefix(name, bucketPrefix); ok {
				sessions = append(sessions, string(rest))
			}
			return nil
		})
	})
	return
}

func (j *Journal) Close() error {
	return j.db.Close()
}

var bucketPrefix = []byte("session:")

func sessionBucket(session string) []byte {
	return append(append([]byte{}, bucketPrefix...), session...)
}

// FirstDivergence compares two draw sequences and returns the index of
// the first draw where they disagree on value or limit, or the shorter
// length when one sequence is a strict prefix of the other. It returns
// -1 for fully identical sequences. Callers and dates are deliberately
// ignored: file/line tokens differ across builds and wall dates across
// machines, but the values must match draw-for-draw.
func FirstDivergence(a, b []Record) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i].Value != b[i].Value || a[i].Limit != b[i].Limit {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
