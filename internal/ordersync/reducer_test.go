package ordersync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/barhop/internal/domain"
)

func activeOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:     "o1",
		Items:  []domain.OrderItem{{ItemID: "i1", Name: "IPA", Quantity: 2, UnitPrice: 7.5}},
		Total:  15,
		Status: status,
	}
}

func update(id string, status domain.OrderStatus, code, color string) Message {
	return Message{Kind: KindOrderStatusUpdate, OrderID: id, Status: status, PickupCode: code, PickupColor: color}
}

func countKind(effects []Effect, k EffectKind) int {
	n := 0
	for _, e := range effects {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func TestApplySnapshot(t *testing.T) {
	assert.Equal(t, PhaseNoOrder, ApplySnapshot(nil).Phase())

	s := ApplySnapshot(activeOrder(domain.OrderPending))
	assert.Equal(t, PhaseActive, s.Phase())
	assert.Nil(t, s.Last)

	s = ApplySnapshot(activeOrder(domain.OrderDone))
	assert.Equal(t, PhaseTerminal, s.Phase())
	assert.Nil(t, s.Current)
	require.NotNil(t, s.Last)
	assert.Equal(t, "o1", s.Last.ID)
}

func TestApplyUpdate_ReadyIsIdempotent(t *testing.T) {
	s0 := ApplySnapshot(activeOrder(domain.OrderInProgress))
	msg := update("o1", domain.OrderReady, "42", "#22c55e")

	s1, eff1 := ApplyUpdate(s0, msg)
	require.NotNil(t, s1.Current)
	assert.Equal(t, PhaseActive, s1.Phase())
	assert.Equal(t, domain.OrderReady, s1.Current.Status)
	assert.Equal(t, "42", s1.Current.PickupCode)
	assert.Equal(t, "#22c55e", s1.Current.PickupColor)
	require.Len(t, eff1, 1)
	assert.Equal(t, EffectNotifyReady, eff1[0].Kind)
	assert.Equal(t, "42", eff1[0].Order.PickupCode)

	s2, eff2 := ApplyUpdate(s1, msg)
	assert.Equal(t, s1, s2)
	assert.Zero(t, countKind(eff2, EffectNotifyReady))

	assert.Equal(t, domain.OrderInProgress, s0.Current.Status, "input state must not be mutated")
}

func TestApplyUpdate_DoneArchivesInOneStep(t *testing.T) {
	s0, _ := ApplyUpdate(ApplySnapshot(activeOrder(domain.OrderPending)), update("o1", domain.OrderReady, "7", ""))
	before := s0.Current.Clone()

	s1, eff := ApplyUpdate(s0, update("o1", domain.OrderDone, "", ""))

	assert.Nil(t, s1.Current)
	assert.Equal(t, before, s1.Last)
	assert.Equal(t, PhaseTerminal, s1.Phase())
	require.Len(t, eff, 1)
	assert.Equal(t, EffectArchive, eff[0].Kind)
	assert.Equal(t, before, eff[0].Order)

	s2, eff2 := ApplyUpdate(s1, update("o1", domain.OrderDone, "", ""))
	assert.Equal(t, s1, s2)
	assert.Empty(t, eff2)
}

func TestApplyUpdate_PickupCodeIsSticky(t *testing.T) {
	s := ApplySnapshot(activeOrder(domain.OrderPending))

	s, eff := ApplyUpdate(s, update("o1", "", "99", "#f97316"))
	assert.Empty(t, eff)
	assert.Equal(t, domain.OrderPending, s.Current.Status)
	assert.Equal(t, "99", s.Current.PickupCode)

	s, eff = ApplyUpdate(s, update("o1", domain.OrderInProgress, "", ""))
	assert.Empty(t, eff)
	assert.Equal(t, "99", s.Current.PickupCode)
	assert.Equal(t, "#f97316", s.Current.PickupColor)

	s, eff = ApplyUpdate(s, update("o1", domain.OrderReady, "", ""))
	require.Len(t, eff, 1)
	assert.Equal(t, "99", eff[0].Order.PickupCode)
	assert.Equal(t, "99", s.Current.PickupCode)
}

func TestApplyUpdate_ReadyAgainAfterLeavingReady(t *testing.T) {
	s := ApplySnapshot(activeOrder(domain.OrderReady))

	s, eff := ApplyUpdate(s, update("o1", domain.OrderReady, "", ""))
	assert.Empty(t, eff, "snapshot already ready")

	s, _ = ApplyUpdate(s, update("o1", domain.OrderInProgress, "", ""))
	_, eff = ApplyUpdate(s, update("o1", domain.OrderReady, "", ""))
	assert.Equal(t, 1, countKind(eff, EffectNotifyReady))
}

func TestApplyUpdate_Ignored(t *testing.T) {
	s := ApplySnapshot(activeOrder(domain.OrderPending))

	tests := []struct {
		name string
		msg  Message
	}{
		{name: "other order", msg: update("o2", domain.OrderReady, "1", "")},
		{name: "other kind", msg: Message{Kind: "menu_update", OrderID: "o1", Status: domain.OrderReady}},
		{name: "missing id", msg: update("", domain.OrderReady, "", "")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, eff := ApplyUpdate(s, tc.msg)
			assert.Equal(t, s, got)
			assert.Empty(t, eff)
		})
	}

	got, eff := ApplyUpdate(State{}, update("o1", domain.OrderReady, "", ""))
	assert.Equal(t, State{}, got)
	assert.Empty(t, eff)
}

func TestState_VisibleHidesCodeUntilReady(t *testing.T) {
	s, _ := ApplyUpdate(ApplySnapshot(activeOrder(domain.OrderPending)), update("o1", "", "42", "#22c55e"))

	v := s.Visible()
	assert.Empty(t, v.Current.PickupCode)
	assert.Empty(t, v.Current.PickupColor)
	assert.Equal(t, "42", s.Current.PickupCode, "stored code kept")

	s, _ = ApplyUpdate(s, update("o1", domain.OrderReady, "", ""))
	assert.Equal(t, "42", s.Visible().Current.PickupCode)
}

func TestParseMessage(t *testing.T) {
	m, err := ParseMessage([]byte(`{"type":"order_status_update","order_id":"o1","status":"Ready","pickup_code":42,"pickup_color":"#22c55e"}`))
	require.NoError(t, err)
	assert.Equal(t, update("o1", domain.OrderReady, "42", "#22c55e"), m)

	m, err = ParseMessage([]byte(`{"kind":"order_status_update","order_id":17,"pickup_code":"A7"}`))
	require.NoError(t, err)
	assert.Equal(t, "17", m.OrderID)
	assert.Empty(t, m.Status)

	for _, raw := range []string{
		`not json`,
		`[]`,
		`{"type":"order_status_update","status":"ready"}`,
		`{"type":"order_status_update","order_id":"o1","status":"teleported"}`,
	} {
		_, err := ParseMessage([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedMessage, raw)
	}
}
