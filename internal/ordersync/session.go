package ordersync

import (
	"reflect"
	"sync"

	"github.com/kirinyoku/barhop/internal/domain"
)

// Session owns the order state of one client. All methods are safe for
// concurrent use; subscribers are called outside the lock in the order
// updates were applied.
type Session struct {
	mu      sync.Mutex
	notify  sync.Mutex
	state   State
	pending []Effect
	subs    map[int]func(State)
	nextSub int
	closed  bool
}

// NewSession starts a session from the fetched snapshot (nil for none).
func NewSession(snapshot *domain.Order) *Session {
	return &Session{
		state: ApplySnapshot(snapshot),
		subs:  make(map[int]func(State)),
	}
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Handle parses raw and applies it. Malformed payloads are ignored.
func (s *Session) Handle(raw []byte) bool {
	m, err := ParseMessage(raw)
	if err != nil {
		return false
	}
	return s.Apply(m)
}

// Apply feeds m through the reducer, queues the resulting effects and
// notifies subscribers when the state changed. It reports whether it did.
func (s *Session) Apply(m Message) bool {
	s.notify.Lock()
	defer s.notify.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	next, effects := ApplyUpdate(s.state, m)
	changed := !reflect.DeepEqual(next, s.state)
	s.state = next
	s.pending = append(s.pending, effects...)

	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if !changed {
		return false
	}
	for _, fn := range subs {
		fn(next)
	}
	return true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) CurrentOrder() *domain.Order {
	return s.State().Current.Clone()
}

func (s *Session) LastOrder() *domain.Order {
	return s.State().Last.Clone()
}

// Drain returns and clears the effects queued since the previous call.
func (s *Session) Drain() []Effect {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.pending
	s.pending = nil
	return out
}

// Close drops all subscribers. Later updates are ignored and the state is
// kept as it was.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.subs = make(map[int]func(State))
}
