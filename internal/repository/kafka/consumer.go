package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderUpdatesConsumer reads order status messages from a topic as the only
// member of its consumer group, so it is assigned every partition. A new
// group starts at the newest offset: sessions fetch their snapshot on open.
// Offsets are committed after the handler returns, so a crash redelivers the
// message; the order reducer tolerates that.
type OrderUpdatesConsumer struct {
	r       messageReader
	log     *slog.Logger
	backoff time.Duration
}

func NewOrderUpdatesConsumer(brokers []string, topic, groupID string, log *slog.Logger) *OrderUpdatesConsumer {
	return &OrderUpdatesConsumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:     groupID,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    1 << 20,
		}),
		log:     log,
		backoff: time.Second,
	}
}

// Subscribe blocks, calling handler for every message, until ctx is done.
// Read errors are logged and retried after a pause.
func (c *OrderUpdatesConsumer) Subscribe(ctx context.Context, handler func(ctx context.Context, payload []byte)) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, context.Canceled) {
				return err
			}

			c.log.ErrorContext(ctx, "kafka fetch failed", slog.String("err", err.Error()))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}

		handler(ctx, msg.Value)

		if err := c.r.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.log.WarnContext(ctx, "kafka commit failed",
				slog.Int64("offset", msg.Offset),
				slog.Int("partition", msg.Partition),
				slog.String("err", err.Error()),
			)
		}
	}
}

func (c *OrderUpdatesConsumer) Close() error {
	return c.r.Close()
}
