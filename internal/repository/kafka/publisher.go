package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kirinyoku/barhop/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderReadyEvent is published once per order when it becomes ready for
// pickup. Downstream notification services deliver it to the customer.
type OrderReadyEvent struct {
	Type        string `json:"type"`
	OrderID     string `json:"order_id"`
	PickupCode  string `json:"pickup_code,omitempty"`
	PickupColor string `json:"pickup_color,omitempty"`
	TsUnix      int64  `json:"ts_unix"`
}

type NotificationPublisher struct {
	w   messageWriter
	now func() time.Time
}

func NewNotificationPublisher(brokers []string, topic string) *NotificationPublisher {
	return &NotificationPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		now: time.Now,
	}
}

// PublishOrderReady keys the message by order id so that every event of one
// order lands on the same partition.
func (p *NotificationPublisher) PublishOrderReady(ctx context.Context, o *domain.Order) error {
	const op = "kafka.NotificationPublisher.PublishOrderReady"

	if o == nil {
		return fmt.Errorf("%s: nil order", op)
	}

	payload, err := json.Marshal(OrderReadyEvent{
		Type:        "order_ready",
		OrderID:     o.ID,
		PickupCode:  o.PickupCode,
		PickupColor: o.PickupColor,
		TsUnix:      p.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (p *NotificationPublisher) Close() error {
	return p.w.Close()
}
