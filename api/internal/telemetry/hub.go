package telemetry

import (
	"sync"

	"github.com/irgordon/helix/api/internal/core/domain"
)

// Hub fans history events out to live analytics subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[domain.OperationKind][]chan domain.HistoryEntry // "" receives every kind
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[domain.OperationKind][]chan domain.HistoryEntry),
	}
}

// Subscribe registers a listener for one kind, or every kind when kind is "".
func (h *Hub) Subscribe(kind domain.OperationKind) chan domain.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan domain.HistoryEntry, 100) // Buffer so a slow dashboard never blocks an encode
	h.subscribers[kind] = append(h.subscribers[kind], ch)
	return ch
}

// Unsubscribe removes and closes a listener channel.
func (h *Hub) Unsubscribe(kind domain.OperationKind, ch chan domain.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[kind]
	for i, sub := range subs {
		if sub == ch {
			h.subscribers[kind] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
}

// Broadcast delivers entry to its kind's listeners and to catch-all listeners.
func (h *Hub) Broadcast(entry domain.HistoryEntry) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, key := range []domain.OperationKind{entry.Kind, ""} {
		for _, ch := range h.subscribers[key] {
			select {
			case ch <- entry:
			default: // Drop if the buffer is full
			}
		}
	}
}

// Subscribers reports the number of open listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, subs := range h.subscribers {
		n += len(subs)
	}
	return n
}
