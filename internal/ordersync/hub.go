package ordersync

import (
	"context"
	"log/slog"
	"sync"
)

// Hub fans inbound stream payloads out to every registered session. Each
// session filters by its own order id.
type Hub struct {
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:      log,
		sessions: make(map[string]*Session),
	}
}

func (h *Hub) Register(id string, s *Session) {
	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()
}

// Unregister removes and closes the session.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if ok {
		s.Close()
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dispatch parses payload once and applies it to every session. It has the
// handler shape expected by the stream consumers.
func (h *Hub) Dispatch(ctx context.Context, payload []byte) {
	m, err := ParseMessage(payload)
	if err != nil {
		h.log.DebugContext(ctx, "order message dropped", slog.String("err", err.Error()))
		return
	}
	if m.Kind != KindOrderStatusUpdate {
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	applied := 0
	for _, s := range targets {
		if s.Apply(m) {
			applied++
		}
	}

	h.log.DebugContext(ctx, "order message dispatched",
		slog.String("order_id", m.OrderID),
		slog.String("status", string(m.Status)),
		slog.Int("sessions", len(targets)),
		slog.Int("changed", applied),
	)
}
