package notify

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryNotifier(t *testing.T) {
	m := NewMemory()
	m.Notify(SeverityError, "boom")
	m.Notify(SeveritySuccess, "done")

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Severity != SeverityError || msgs[0].Text != "boom" {
		t.Errorf("first = %+v", msgs[0])
	}
	if msgs[1].Severity != SeveritySuccess {
		t.Errorf("second = %+v", msgs[1])
	}

	// Messages returns a snapshot, not the backing slice.
	msgs[0].Text = "mutated"
	if m.Messages()[0].Text != "boom" {
		t.Fatal("snapshot mutation leaked into the notifier")
	}
}

func TestSubscriptionFiresUntilStopped(t *testing.T) {
	var ticks int64
	sub := NewSubscription(5*time.Millisecond, func() {
		atomic.AddInt64(&ticks, 1)
	})
	sub.Start()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&ticks) < 2 {
		select {
		case <-deadline:
			t.Fatal("subscription never fired twice")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	sub.Stop()
	after := atomic.LoadInt64(&ticks)
	time.Sleep(30 * time.Millisecond)
	// At most one tick can race the stop.
	if got := atomic.LoadInt64(&ticks); got > after+1 {
		t.Fatalf("ticks kept arriving after Stop: %d -> %d", after, got)
	}
}

func TestSubscriptionStopIsIdempotent(t *testing.T) {
	sub := NewSubscription(time.Millisecond, func() {})
	sub.Start()
	sub.Stop()
	sub.Stop() // must not panic
}

func TestSubscriptionDoubleStartIsNoOp(t *testing.T) {
	var ticks int64
	sub := NewSubscription(5*time.Millisecond, func() {
		atomic.AddInt64(&ticks, 1)
	})
	sub.Start()
	sub.Start()
	defer sub.Stop()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&ticks) < 1 {
		select {
		case <-deadline:
			t.Fatal("subscription never fired")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
