package sse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/notification"
)

const subscriberBuffer = 16

// Hub fans payroll events out to every connected SSE client
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan notification.Event]struct{}
	closed      bool
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan notification.Event]struct{}),
	}
}

// Subscribe registers a new subscriber and returns the event channel and cleanup function
func (h *Hub) Subscribe(_ context.Context) (<-chan notification.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan notification.Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		// Close may already have closed it
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}

	return ch, cleanup
}

// Close ends every open stream and refuses new ones. Used on server shutdown,
// which does not cancel long-lived request contexts by itself.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}

// Publish sends an event to all subscribers without blocking
func (h *Hub) Publish(_ context.Context, event notification.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			slog.Warn("Dropping SSE event for slow subscriber", "type", event.Type)
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
