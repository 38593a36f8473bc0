// Package logbuf accumulates console log entries in append order.
package logbuf

import (
	"sync"
	"time"

	"github.com/modoterra/devconsole/pkg/core"
)

// Buffer is an append-only store of log entries. Entries are never evicted.
type Buffer struct {
	mu      sync.Mutex
	entries []core.LogEntry
	nextID  int
	subs    []chan core.LogEntry
	now     func() time.Time
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{nextID: 1, now: time.Now}
}

// Append records a new entry and notifies subscribers without blocking.
func (b *Buffer) Append(sev core.Severity, message, stackTrace string) core.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := core.LogEntry{
		ID:         b.nextID,
		Severity:   sev,
		Message:    message,
		StackTrace: stackTrace,
		Time:       b.now(),
	}
	b.nextID++
	b.entries = append(b.entries, entry)

	for _, ch := range b.subs {
		select {
		case ch <- entry:
		default:
		}
	}
	return entry
}

// Count returns the number of entries appended so far.
func (b *Buffer) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Entries returns a snapshot of all entries in append order.
func (b *Buffer) Entries() []core.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Since returns entries with an ID greater than afterID.
func (b *Buffer) Since(afterID int) []core.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	// IDs start at 1 and have no gaps, so the entry with ID n sits at index n-1.
	start := max(afterID, 0)
	if start >= len(b.entries) {
		return nil
	}
	out := make([]core.LogEntry, len(b.entries)-start)
	copy(out, b.entries[start:])
	return out
}

// Subscribe returns a channel receiving every entry appended from now on.
// Slow readers miss entries rather than stall Append.
func (b *Buffer) Subscribe() <-chan core.LogEntry {
	ch := make(chan core.LogEntry, 256)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe detaches and closes a channel returned by Subscribe.
func (b *Buffer) Unsubscribe(ch <-chan core.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s)
			return
		}
	}
}
