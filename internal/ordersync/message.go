package ordersync

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kirinyoku/barhop/internal/domain"
)

// KindOrderStatusUpdate is the only message kind the synchronizer reacts to.
const KindOrderStatusUpdate = "order_status_update"

var ErrMalformedMessage = errors.New("malformed order message")

// Message is one inbound push update. An empty Status means the message only
// carries a pickup code.
type Message struct {
	Kind        string             `json:"type"`
	OrderID     string             `json:"order_id"`
	Status      domain.OrderStatus `json:"status,omitempty"`
	PickupCode  string             `json:"pickup_code,omitempty"`
	PickupColor string             `json:"pickup_color,omitempty"`
}

type wireMessage struct {
	Type        string `json:"type"`
	Kind        string `json:"kind"`
	OrderID     any    `json:"order_id"`
	Status      string `json:"status"`
	PickupCode  any    `json:"pickup_code"`
	PickupColor string `json:"pickup_color"`
}

// ParseMessage decodes a raw stream payload. Numeric order ids and pickup
// codes are accepted and rendered as decimal strings. Messages without an
// order id, of an unknown status, or that are not JSON objects are rejected
// with ErrMalformedMessage.
func ParseMessage(raw []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(raw, &w); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	kind := w.Type
	if kind == "" {
		kind = w.Kind
	}

	m := Message{
		Kind:        strings.TrimSpace(kind),
		OrderID:     scalarString(w.OrderID),
		PickupCode:  scalarString(w.PickupCode),
		PickupColor: strings.TrimSpace(w.PickupColor),
	}
	if m.OrderID == "" {
		return Message{}, fmt.Errorf("%w: missing order id", ErrMalformedMessage)
	}

	if strings.TrimSpace(w.Status) != "" {
		st, ok := domain.ParseOrderStatus(w.Status)
		if !ok {
			return Message{}, fmt.Errorf("%w: unknown status %q", ErrMalformedMessage, w.Status)
		}
		m.Status = st
	}

	return m, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return ""
	}
}
