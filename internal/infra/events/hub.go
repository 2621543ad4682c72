package events

import (
	"context"
	"sync"

	"github.com/xavierca1/leadflow/internal/entity"
)

const subscriberBuffer = 16

// Hub fans change events out to the SSE streams of one company.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan entity.ChangeEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan entity.ChangeEvent]struct{})}
}

// Subscribe returns the event stream of companyID and a func that ends it.
func (h *Hub) Subscribe(companyID string) (<-chan entity.ChangeEvent, func()) {
	ch := make(chan entity.ChangeEvent, subscriberBuffer)

	h.mu.Lock()
	if h.subs[companyID] == nil {
		h.subs[companyID] = make(map[chan entity.ChangeEvent]struct{})
	}
	h.subs[companyID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[companyID][ch]; !ok {
			return
		}
		delete(h.subs[companyID], ch)
		if len(h.subs[companyID]) == 0 {
			delete(h.subs, companyID)
		}
		close(ch)
	}
}

// Close ends every open stream. Called on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for ch := range set {
			close(ch)
		}
	}
	h.subs = make(map[string]map[chan entity.ChangeEvent]struct{})
}

// Broadcast never blocks; a subscriber with a full buffer misses the event
// and catches up on its next refetch.
func (h *Hub) Broadcast(ev entity.ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[ev.CompanyID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Publish delivers in-process. Used when Postgres NOTIFY is not wired.
func (h *Hub) Publish(_ context.Context, ev entity.ChangeEvent) error {
	h.Broadcast(ev)
	return nil
}

func (h *Hub) Subscribers(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[companyID])
}
