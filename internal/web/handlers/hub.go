package handlers

import (
	"context"
	"sync"

	"github.com/kozaktomas/whereabouts/internal/constants"
	"github.com/kozaktomas/whereabouts/internal/recognition"
)

// Hub is a recognition sink that keeps the latest frame and broadcasts every
// frame to SSE listeners.
type Hub struct {
	mu        sync.RWMutex
	latest    *recognition.FrameResult
	frames    int64
	listeners []chan *recognition.FrameResult
	closed    bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Emit stores r as the latest frame and forwards it to listeners. Slow
// listeners miss frames instead of blocking the recognition loop.
func (h *Hub) Emit(_ context.Context, r *recognition.FrameResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.latest = r
	h.frames++
	for _, listener := range h.listeners {
		select {
		case listener <- r:
		default:
			// Listener buffer full, skip.
		}
	}
	return nil
}

// Close ends all listener streams.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for _, listener := range h.listeners {
		close(listener)
	}
	h.listeners = nil
	return nil
}

// Latest returns the most recent frame, nil before the first one.
func (h *Hub) Latest() *recognition.FrameResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Frames returns the number of frames received.
func (h *Hub) Frames() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frames
}

// Listeners returns the number of connected listeners.
func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// AddListener registers a frame listener. The channel is closed when the hub closes.
func (h *Hub) AddListener() chan *recognition.FrameResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan *recognition.FrameResult, constants.EventChannelBuffer)
	if h.closed {
		close(ch)
		return ch
	}
	h.listeners = append(h.listeners, ch)
	return ch
}

// RemoveListener unregisters and closes a listener.
func (h *Hub) RemoveListener(ch chan *recognition.FrameResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, listener := range h.listeners {
		if listener == ch {
			h.listeners = append(h.listeners[:i], h.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}
