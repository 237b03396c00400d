package server

import (
	"sync"

	"github.com/dusk-indust/surveynotes/internal/survey"
)

// subscriberBuffer is the per-subscriber event buffer. Events for a full
// subscriber are dropped.
const subscriberBuffer = 32

// Hub fans progress events out to every live subscriber. Publish never
// blocks.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan survey.ProgressEvent]struct{}
	closed bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan survey.ProgressEvent]struct{})}
}

// Publish delivers ev to every subscriber with room in its buffer. It has the
// signature of a Refresher progress callback.
func (h *Hub) Publish(ev survey.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes its channel; it is safe to call more than once. Subscribing to
// a closed hub yields an already closed channel.
func (h *Hub) Subscribe() (<-chan survey.ProgressEvent, func()) {
	ch := make(chan survey.ProgressEvent, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later publishes are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
