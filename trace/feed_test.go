package trace

import (
	"testing"
	"time"
)

func TestFeedDelivery(t *testing.T) {
	f := NewFeed()
	sub := f.Subscribe("client-1")
	defer f.Unsubscribe("client-1")

	f.Observe(Record{Value: 42})

	select {
	case rec := <-sub:
		if rec.Value != 42 {
			t.Errorf("received value %d, want 42", rec.Value)
		}
	case <-time.After(time.Second):
		t.Fatal("no record delivered within a second")
	}
}

func TestFeedUnsubscribeClosesChannel(t *testing.T) {
	f := NewFeed()
	sub := f.Subscribe("client-1")
	f.Unsubscribe("client-1")

	select {
	case _, ok := <-sub:
		if ok {
			t.Error("received a record on an unsubscribed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
	if f.Size() != 0 {
		t.Errorf("feed size = %d after unsubscribe, want 0", f.Size())
	}
}

func TestFeedSlowSubscriberDoesNotBlock(t *testing.T) {
	f := NewFeed()
	f.Subscribe("stuck") // never drained
	defer f.Unsubscribe("stuck")

	// must return promptly even with far more records than buffer space
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10_000; i++ {
			f.Observe(Record{Value: uint32(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Observe blocked on a congested subscriber")
	}
}

func TestFeedResubscribeReplaces(t *testing.T) {
	f := NewFeed()
	old := f.Subscribe("client-1")
	f.Subscribe("client-1")
	defer f.Unsubscribe("client-1")

	select {
	case _, ok := <-old:
		if ok {
			t.Error("old channel still receiving after resubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("old channel not closed on resubscribe")
	}
	if f.Size() != 1 {
		t.Errorf("feed size = %d, want 1", f.Size())
	}
}
