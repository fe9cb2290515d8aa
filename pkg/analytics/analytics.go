// Package analytics keeps an in-memory, bounded log of usage events.
//
// One Log is shared by the process. It is created explicitly with Init and
// read back with Default; Reset drops it (tests, sign-out).
package analytics

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of events kept before the oldest is dropped.
const DefaultCapacity = 1000

// Event is one tracked occurrence.
type Event struct {
	ID        string         `json:"id"`
	Event     string         `json:"event"`
	Category  string         `json:"category"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Stats summarizes the events currently held.
type Stats struct {
	TotalEvents      int            `json:"totalEvents"`
	EventsByCategory map[string]int `json:"eventsByCategory"`
	EventsByHour     map[int]int    `json:"eventsByHour"`
	LastEvent        *Event         `json:"lastEvent,omitempty"`
}

// Log is a capped event history. Safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	events   []Event
	capacity int
	now      func() time.Time
}

// New creates a Log holding at most capacity events. A non-positive capacity
// means DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity, now: time.Now}
}

// Track appends an event, dropping the oldest when the log is full.
func (l *Log) Track(event, category string, metadata map[string]any) Event {
	e := Event{
		ID:        uuid.NewString(),
		Event:     event,
		Category:  category,
		Timestamp: l.now(),
		Metadata:  metadata,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	if over := len(l.events) - l.capacity; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
	return e
}

// Stats counts events by category and by local hour of day.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Stats{
		TotalEvents:      len(l.events),
		EventsByCategory: make(map[string]int),
		EventsByHour:     make(map[int]int),
	}
	for _, e := range l.events {
		s.EventsByCategory[e.Category]++
		s.EventsByHour[e.Timestamp.Hour()]++
	}
	if n := len(l.events); n > 0 {
		last := l.events[n-1]
		s.LastEvent = &last
	}
	return s
}

// History returns a copy of the events, oldest first.
func (l *Log) History() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Clear drops every event.
func (l *Log) Clear() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

var (
	defaultMu  sync.Mutex
	defaultLog *Log
)

// Init installs the process-wide Log. Calling it again replaces the log.
func Init(capacity int) *Log {
	l := New(capacity)
	defaultMu.Lock()
	defaultLog = l
	defaultMu.Unlock()
	return l
}

// Default returns the process-wide Log, creating one with DefaultCapacity if
// Init was never called.
func Default() *Log {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLog == nil {
		defaultLog = New(DefaultCapacity)
	}
	return defaultLog
}

// Reset discards the process-wide Log.
func Reset() {
	defaultMu.Lock()
	defaultLog = nil
	defaultMu.Unlock()
}
