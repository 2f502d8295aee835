package engine

import (
	"sync"
	"time"
)

// Event is a notable occurrence in the simulation.
type Event struct {
	At          time.Time `json:"at"`
	Nation      string    `json:"nation"` // empty for global events
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

// Event categories used across subsystems.
const (
	CategoryPolitical = "political"
	CategoryEconomy   = "economy"
	CategoryMilitary  = "military"
	CategoryDiplomacy = "diplomacy"
)

const recentWindow = 1000

// EventLog buffers events in memory. A bounded recent window serves reads;
// a separate pending queue holds events awaiting an archive flush.
type EventLog struct {
	mu      sync.Mutex
	recent  []Event
	pending []Event
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Emit records an event.
func (l *EventLog) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.recent = append(l.recent, e)
	if len(l.recent) > recentWindow {
		l.recent = l.recent[len(l.recent)-recentWindow:]
	}
	l.pending = append(l.pending, e)
}

// Recent returns up to n of the most recently emitted events, oldest first.
func (l *EventLog) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0
	if len(l.recent) > n {
		start = len(l.recent) - n
	}
	out := make([]Event, len(l.recent)-start)
	copy(out, l.recent[start:])
	return out
}

// Drain returns all pending events and clears the pending queue. The recent
// window is unaffected.
func (l *EventLog) Drain() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.pending
	l.pending = nil
	return out
}

// Requeue puts drained events back at the front of the pending queue after a
// failed flush.
func (l *EventLog) Requeue(events []Event) {
	if len(events) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(events, l.pending...)
}

// Pending reports how many events await archiving.
func (l *EventLog) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}
