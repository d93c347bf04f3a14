package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var ErrOrderUpdatesClosed = errors.New("order updates channel closed")

// OrderUpdatesPubSub carries raw order status messages published by the
// backend. Payloads are passed through untouched; parsing belongs to the
// order synchronizer.
type OrderUpdatesPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewOrderUpdatesPubSub(rdb *redis.Client) *OrderUpdatesPubSub {
	return &OrderUpdatesPubSub{
		rdb:     rdb,
		channel: ChannelOrderUpdates(),
	}
}

func (p *OrderUpdatesPubSub) Publish(ctx context.Context, payload []byte) error {
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// Subscribe blocks, calling handler for every message, until ctx is done. A
// closed subscription returns ErrOrderUpdatesClosed.
func (p *OrderUpdatesPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, payload []byte)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so that callers publishing
	// right after Subscribe starts do not race it.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	return consume(ctx, sub.Channel(redis.WithChannelSize(256)), handler)
}

func consume(ctx context.Context, ch <-chan *redis.Message, handler func(ctx context.Context, payload []byte)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return ErrOrderUpdatesClosed
			}
			handler(ctx, []byte(m.Payload))
		}
	}
}
