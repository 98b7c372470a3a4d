package smoother

import (
	"sort"
	"sync"

	"github.com/kozaktomas/whereabouts/internal/constants"
)

// Tracker keeps one Buffer per identity. In shared mode every identity feeds
// and reads a single buffer.
type Tracker struct {
	mu       sync.Mutex
	capacity int
	shared   *Buffer
	buffers  map[string]*Buffer
}

// NewTracker creates a tracker whose buffers hold capacity values each.
func NewTracker(capacity int, shared bool) *Tracker {
	if capacity <= 0 {
		capacity = constants.LocationSmoothingWindow
	}
	t := &Tracker{capacity: capacity, buffers: make(map[string]*Buffer)}
	if shared {
		t.shared = NewBuffer(capacity)
	}
	return t
}

// Shared reports whether all identities share one buffer.
func (t *Tracker) Shared() bool {
	return t.shared != nil
}

func (t *Tracker) buffer(identity string, create bool) *Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.buffers[identity]
	if !ok && create {
		b = t.shared
		if b == nil {
			b = NewBuffer(t.capacity)
		}
		t.buffers[identity] = b
	}
	if b == nil {
		return t.shared
	}
	return b
}

// Observe records an inferred place for identity.
func (t *Tracker) Observe(identity, place string) {
	t.buffer(identity, true).Push(place)
}

// Current returns the smoothed place for identity, constants.UnknownLabel when
// nothing was observed yet. In shared mode any identity reads the shared buffer.
func (t *Tracker) Current(identity string) string {
	b := t.buffer(identity, false)
	if b == nil {
		return constants.UnknownLabel
	}
	return b.Current()
}

// Snapshot returns the current smoothed place of every observed identity.
func (t *Tracker) Snapshot() map[string]string {
	t.mu.Lock()
	names := make([]string, 0, len(t.buffers))
	for name := range t.buffers {
		names = append(names, name)
	}
	t.mu.Unlock()
	sort.Strings(names)

	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = t.Current(name)
	}
	return out
}
