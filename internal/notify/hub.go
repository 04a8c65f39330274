package notify

import (
	"context"
	"sync"
)

// Hub fan-outs notifications to live subscribers (SSE clients). Subscriptions
// are keyed by user id; one user may hold several connections.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan *Notification
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan *Notification)}
}

// Subscribe registers a subscriber for one user and returns a channel which
// will receive that user's notifications. The channel is closed when the
// provided context ends.
func (h *Hub) Subscribe(ctx context.Context, userID string) <-chan *Notification {
	ch := make(chan *Notification, 16)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan *Notification)
	}
	h.subs[userID][id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs[userID], id)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish delivers the notification to every live connection of its user.
func (h *Hub) Publish(n *Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[n.UserID] {
		select {
		case ch <- n:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
