package trace

import (
	"github.com/puzpuzpuz/xsync"
)

// Feed fans traced draws out to live subscribers, e.g. websocket clients
// watching a capture session. Subscribers are held in a sync map safe for
// concurrent access; delivery is strictly best-effort so a slow consumer
// can never back-pressure the simulation tick.
type Feed struct {

	// subscriber channels keyed by an opaque id (usually the remote addr)
	subscribers *xsync.MapOf[string, chan Record]

	// broadcast is the single inbox the transmitter drains
	broadcast chan Record
}

// NewFeed initializes the fields and starts the transmitter.
func NewFeed() *Feed {
	f := &Feed{
		subscribers: xsync.NewMapOf[chan Record](),
		broadcast:   make(chan Record, 256),
	}
	go f.transmitter()
	return f
}

// Observe implements Observer. Records are dropped when the inbox is
// congested rather than blocking the draw.
func (f *Feed) Observe(rec Record) {
	select {
	case f.broadcast <- rec:
	default:
		metricFeedDropped.Inc()
	}
}

// transmitter forwards records from the inbox to all subscribers
func (f *Feed) transmitter() {
	for rec := range f.broadcast {
		f.subscribers.Range(func(_ string, ch chan Record) bool {
			select {
			case ch <- rec:
			default:
				metricFeedDropped.Inc()
			}
			return true
		})
	}
}

// Subscribe registers a new subscriber under id and returns its channel.
// A previous subscriber with the same id is replaced and closed.
func (f *Feed) Subscribe(id string) <-chan Record {
	ch := make(chan Record, 64)
	if old, ok := f.subscribers.LoadAndDelete(id); ok {
		close(old)
	}
	f.subscribers.Store(id, ch)
	metricSubscribers.Set(float64(f.subscribers.Size()))
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (f *Feed) Unsubscribe(id string) {
	if ch, ok := f.subscribers.LoadAndDelete(id); ok {
		close(ch)
	}
	metricSubscribers.Set(float64(f.subscribers.Size()))
}

// Size returns the current number of subscribers.
func (f *Feed) Size() int {
	return f.subscribers.Size()
}
