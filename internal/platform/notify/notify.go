// Package notify provides the fire-and-forget transient message channel
// ("toast") surfaced to clinicians, plus a renewable subscription handle for
// periodic refresh tasks with explicit start/stop lifecycles.
package notify

import (
	"sync"
	"time"
)

// Severity classifies a transient message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Message is one transient notification.
type Message struct {
	Severity Severity  `json:"severity"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

// Notifier delivers transient messages. Delivery is fire-and-forget:
// implementations never return errors and must not block the caller.
type Notifier interface {
	Notify(severity Severity, text string)
}

// Memory is an in-memory notifier retaining delivered messages, used as the
// default sink and in tests.
type Memory struct {
	mu   sync.Mutex
	msgs []Message
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Notify(severity Severity, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, Message{Severity: severity, Text: text, At: time.Now()})
}

// Messages returns a snapshot of delivered messages.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// Discard drops every message.
type Discard struct{}

func (Discard) Notify(Severity, string) {}

// Subscription runs a callback on a fixed interval until stopped. It
// replaces ambient timers: teardown ordering is explicit and testable.
type Subscription struct {
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	stop    chan struct{}
	stopped sync.Once
	running bool
}

// NewSubscription creates a subscription that will invoke fn every
// interval once started.
func NewSubscription(interval time.Duration, fn func()) *Subscription {
	return &Subscription{interval: interval, fn: fn, stop: make(chan struct{})}
}

// Start launches the ticker goroutine. Starting twice is a no-op.
func (s *Subscription) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.fn()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the ticker. Idempotent; callbacks stop after Stop returns.
func (s *Subscription) Stop() {
	s.stopped.Do(func() {
		close(s.stop)
	})
}
