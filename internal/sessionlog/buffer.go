package sessionlog

import "sync"

// DefaultCapacity is the number of entries a Buffer keeps when none is given.
const DefaultCapacity = 200

// Buffer is a fixed-size ring of entries. The oldest entry is overwritten
// once the ring is full.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	notify  func(Entry)
}

// NewBuffer creates a ring holding up to capacity entries.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{entries: make([]Entry, capacity)}
}

// OnAppend registers fn to run after each Append, outside the buffer lock.
func (b *Buffer) OnAppend(fn func(Entry)) {
	b.mu.Lock()
	b.notify = fn
	b.mu.Unlock()
}

// Append stores entry. It satisfies [Sink] as a method value.
func (b *Buffer) Append(entry Entry) {
	b.mu.Lock()
	b.entries[b.next] = entry
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
	notify := b.notify
	b.mu.Unlock()

	if notify != nil {
		notify(entry)
	}
}

// Recent returns up to limit entries, oldest first. limit <= 0 returns all.
func (b *Buffer) Recent(limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ordered []Entry
	if b.full {
		ordered = make([]Entry, 0, len(b.entries))
		ordered = append(ordered, b.entries[b.next:]...)
		ordered = append(ordered, b.entries[:b.next]...)
	} else {
		ordered = make([]Entry, b.next)
		copy(ordered, b.entries[:b.next])
	}
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}
	return ordered
}

// Len returns the number of stored entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}

// Clear drops every stored entry.
func (b *Buffer) Clear() {
	b.mu.Lock()
	clear(b.entries)
	b.next = 0
	b.full = false
	b.mu.Unlock()
}
