// Package buffer holds the bounded working set of normalized records.
package buffer

import "github.com/crimson-sun/logstream/internal/model"

// DefaultCapacity bounds the working set. It is a memory limit, not a
// display limit.
const DefaultCapacity = 1000

// Buffer is a fixed-capacity ring of records. Pushing beyond capacity
// overwrites the oldest record. Buffer is not safe for concurrent use; it is
// owned by the pipeline loop.
type Buffer struct {
	ring []model.LogRecord
	head int // index of the next write
	size int
}

// New creates a Buffer holding at most capacity records. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{ring: make([]model.LogRecord, capacity)}
}

// Push inserts rec as the newest record and returns how many records were
// evicted to make room (0 or 1).
func (b *Buffer) Push(rec model.LogRecord) int {
	evicted := 0
	if b.size == len(b.ring) {
		evicted = 1
	} else {
		b.size++
	}
	b.ring[b.head] = rec
	b.head = (b.head + 1) % len(b.ring)
	return evicted
}

// Snapshot returns the records newest-first. The slice is a copy.
func (b *Buffer) Snapshot() []model.LogRecord {
	out := make([]model.LogRecord, b.size)
	for i := 0; i < b.size; i++ {
		idx := (b.head - 1 - i + len(b.ring)) % len(b.ring)
		out[i] = b.ring[idx]
	}
	return out
}

// Len returns the number of records held.
func (b *Buffer) Len() int { return b.size }

// Cap returns the capacity.
func (b *Buffer) Cap() int { return len(b.ring) }

// Clear drops every record.
func (b *Buffer) Clear() {
	clear(b.ring)
	b.head = 0
	b.size = 0
}
