// Package smoother damps frame-to-frame location flicker with a majority vote
// over the most recent inferred places.
package smoother

import (
	"sync"

	"github.com/kozaktomas/whereabouts/internal/constants"
)

// Buffer is a bounded FIFO of place names. When full, a push evicts the oldest value.
type Buffer struct {
	mu     sync.Mutex
	values []string
	head   int // index of the oldest value
	size   int
}

// NewBuffer creates a buffer holding at most capacity values.
// A non-positive capacity falls back to constants.LocationSmoothingWindow.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = constants.LocationSmoothingWindow
	}
	return &Buffer{values: make([]string, capacity)}
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.values)
}

// Len returns the number of buffered values.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Push appends place, evicting the oldest value when the buffer is full.
func (b *Buffer) Push(place string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size < len(b.values) {
		b.values[(b.head+b.size)%len(b.values)] = place
		b.size++
		return
	}
	b.values[b.head] = place
	b.head = (b.head + 1) % len(b.values)
}

// Values returns the buffered values from oldest to newest.
func (b *Buffer) Values() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.valuesLocked()
}

func (b *Buffer) valuesLocked() []string {
	out := make([]string, b.size)
	for i := range b.size {
		out[i] = b.values[(b.head+i)%len(b.values)]
	}
	return out
}

// Current returns the most frequent buffered value, or constants.UnknownLabel
// when empty. On equal counts the value seen first, oldest to newest, wins.
func (b *Buffer) Current() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		return constants.UnknownLabel
	}

	values := b.valuesLocked()
	counts := make(map[string]int, len(values))
	maxCount := 0
	for _, v := range values {
		counts[v]++
		maxCount = max(maxCount, counts[v])
	}
	for _, v := range values {
		if counts[v] == maxCount {
			return v
		}
	}
	return constants.UnknownLabel
}
