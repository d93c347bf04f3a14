package ordersync

import (
	"github.com/kirinyoku/barhop/internal/domain"
)

type Phase int

const (
	PhaseNoOrder Phase = iota
	PhaseActive
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseTerminal:
		return "terminal"
	default:
		return "no_order"
	}
}

// State is the client's view of its order. Current is the order being
// tracked; Last is the most recently finished one. Orders held by a State are
// never mutated after the State is returned.
type State struct {
	Current *domain.Order `json:"current"`
	Last    *domain.Order `json:"last"`
}

func (s State) Phase() Phase {
	switch {
	case s.Current != nil:
		return PhaseActive
	case s.Last != nil:
		return PhaseTerminal
	default:
		return PhaseNoOrder
	}
}

type EffectKind string

const (
	EffectNotifyReady EffectKind = "notify_ready"
	EffectArchive     EffectKind = "archive"
)

// Effect describes work the caller performs after a state change.
type Effect struct {
	Kind  EffectKind    `json:"kind"`
	Order *domain.Order `json:"order"`
}

// ApplySnapshot builds the initial state from a fetched order. A finished
// order goes straight to Last.
func ApplySnapshot(o *domain.Order) State {
	switch {
	case o == nil:
		return State{}
	case o.IsTerminal():
		return State{Last: o.Clone()}
	default:
		return State{Current: o.Clone()}
	}
}

// ApplyUpdate folds one message into s. Messages of another kind or for an
// order other than s.Current leave s untouched.
//
// Entering ready emits notify_ready once; re-entering ready from ready does
// not. Pickup code and color survive messages that omit them. Done moves the
// order as it was before the message into Last and clears Current.
func ApplyUpdate(s State, m Message) (State, []Effect) {
	cur := s.Current
	if m.Kind != KindOrderStatusUpdate || m.OrderID == "" || cur == nil || cur.ID != m.OrderID {
		return s, nil
	}

	if m.Status == domain.OrderDone {
		archived := cur.Clone()
		return State{Last: archived}, []Effect{{Kind: EffectArchive, Order: archived}}
	}

	next := cur.Clone()
	if m.PickupCode != "" {
		next.PickupCode = m.PickupCode
	}
	if m.PickupColor != "" {
		next.PickupColor = m.PickupColor
	}
	if m.Status != "" {
		next.Status = m.Status
	}

	var effects []Effect
	if next.Status == domain.OrderReady && cur.Status != domain.OrderReady {
		effects = append(effects, Effect{Kind: EffectNotifyReady, Order: next.Clone()})
	}

	return State{Current: next, Last: s.Last}, effects
}

// Visible returns s with pickup codes hidden on orders that are not ready
// yet. The code is stored as soon as it arrives but only shown from ready on.
func (s State) Visible() State {
	return State{Current: reveal(s.Current), Last: reveal(s.Last)}
}

func reveal(o *domain.Order) *domain.Order {
	if o == nil || o.Status == domain.OrderReady || o.Status == domain.OrderDone {
		return o
	}
	if o.PickupCode == "" && o.PickupColor == "" {
		return o
	}
	cp := o.Clone()
	cp.PickupCode, cp.PickupColor = "", ""
	return cp
}
