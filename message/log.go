package message

import (
	"sync"
	"time"
)

// Log is the ordered, append-only conversation record. Appends are atomic
// with respect to Snapshot, so a renderer may read while the engine writes.
type Log struct {
	mu        sync.RWMutex
	entries   []Message
	observers []func([]Message)
}

// NewLog returns a log holding entries in order.
func NewLog(entries ...Message) *Log {
	l := &Log{}
	for _, e := range entries {
		l.entries = append(l.entries, stamp(e).clone())
	}
	return l
}

// Append adds entries in order and notifies observers with a fresh snapshot.
func (l *Log) Append(entries ...Message) {
	if len(entries) == 0 {
		return
	}

	l.mu.Lock()
	for _, e := range entries {
		l.entries = append(l.entries, stamp(e).clone())
	}
	snapshot := l.snapshotLocked()
	observers := l.observers
	l.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

// Snapshot returns a copy of the current entries.
func (l *Log) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Last returns the most recent entry.
func (l *Log) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return Message{}, false
	}
	return l.entries[len(l.entries)-1], true
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset replaces the whole log with a single system entry.
func (l *Log) Reset(system string) {
	l.mu.Lock()
	l.entries = []Message{System(system)}
	snapshot := l.snapshotLocked()
	observers := l.observers
	l.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

// Subscribe registers fn to receive a snapshot after every mutation.
// Observers run on the mutating goroutine, outside the lock.
func (l *Log) Subscribe(fn func([]Message)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

func (l *Log) snapshotLocked() []Message {
	out := make([]Message, len(l.entries))
	copy(out, l.entries)
	return out
}

func stamp(m Message) Message {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return m
}
