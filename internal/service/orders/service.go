package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kirinyoku/barhop/internal/domain"
	"github.com/kirinyoku/barhop/internal/ordersync"
	"github.com/kirinyoku/barhop/internal/repository"
	redisrepo "github.com/kirinyoku/barhop/internal/repository/redis"
)

// Provider fetches the order snapshot a session starts from. It returns
// nil, nil when the customer has no order.
type Provider interface {
	CurrentOrderByPhone(ctx context.Context, phone string) (*domain.Order, error)
}

type Notifier interface {
	PublishOrderReady(ctx context.Context, o *domain.Order) error
}

// Deduper makes a side effect happen once across sessions.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// notifyQueueSize bounds the ready notifications waiting for Run.
const notifyQueueSize = 256

type Service struct {
	provider Provider
	hub      *ordersync.Hub
	notifier Notifier
	dedupe   Deduper
	log      *slog.Logger

	ready chan *domain.Order
}

// New wires the order service. notifier and dedupe may be nil; without a
// deduper every session publishes its own ready notification. Ready
// notifications are published by Run.
func New(provider Provider, hub *ordersync.Hub, notifier Notifier, dedupe Deduper, log *slog.Logger) *Service {
	return &Service{
		provider: provider,
		hub:      hub,
		notifier: notifier,
		dedupe:   dedupe,
		log:      log,
		ready:    make(chan *domain.Order, notifyQueueSize),
	}
}

// NormalizePhone strips spaces, dots, dashes and parentheses and keeps a
// leading plus sign.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrPhoneRequired
	}

	var b strings.Builder
	for i, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return "", ErrInvalidPhone
		}
	}

	phone := b.String()
	if len(strings.TrimPrefix(phone, "+")) < 6 {
		return "", ErrInvalidPhone
	}

	return phone, nil
}

// Current fetches the customer's order and folds it into a fresh state: a
// finished order is reported as last, never as current.
//
// Parameters:
//   - ctx: request-scoped context.
//   - phone: customer phone number in any common notation.
//
// Returns:
//   - ordersync.State: pickup codes are hidden until the order is ready.
//   - error: orders.ErrPhoneRequired, orders.ErrInvalidPhone or
//     orders.ErrOrdersUnavailable.
func (s *Service) Current(ctx context.Context, phone string) (ordersync.State, error) {
	const op = "service.orders.Current"

	o, err := s.snapshot(ctx, phone)
	if err != nil {
		return ordersync.State{}, fmt.Errorf("%s: %w", op, err)
	}

	return ordersync.ApplySnapshot(o).Visible(), nil
}

func (s *Service) snapshot(ctx context.Context, phone string) (*domain.Order, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	o, err := s.provider.CurrentOrderByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrOrdersUnavailable, err)
	}

	return o, nil
}

// LiveSession is a registered order session. Close must be called when the
// client goes away.
type LiveSession struct {
	ID string
	*ordersync.Session

	hub *ordersync.Hub
}

func (l *LiveSession) Close() {
	l.hub.Unregister(l.ID)
}

// OpenSession fetches the snapshot and registers a session that receives
// every order update from the stream.
//
// Returns:
//   - *LiveSession: the registered session.
//   - error: same as Current.
func (s *Service) OpenSession(ctx context.Context, phone string) (*LiveSession, error) {
	const op = "service.orders.OpenSession"

	o, err := s.snapshot(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ls := &LiveSession{
		ID:      uuid.NewString(),
		Session: ordersync.NewSession(o),
		hub:     s.hub,
	}
	s.hub.Register(ls.ID, ls.Session)

	return ls, nil
}

// HandleEffects performs the out-of-process part of effects returned by a
// session. It never blocks: it runs on the order stream goroutine, so ready
// notifications are queued for Run and dropped with a warning when the queue
// is full. Per-client delivery (the WebSocket frame) stays with the caller.
func (s *Service) HandleEffects(ctx context.Context, effects []ordersync.Effect) {
	for _, e := range effects {
		switch e.Kind {
		case ordersync.EffectNotifyReady:
			if s.notifier == nil || e.Order == nil {
				continue
			}
			select {
			case s.ready <- e.Order.Clone():
			default:
				s.log.WarnContext(ctx, "notify queue full, ready notification dropped",
					slog.String("order_id", e.Order.ID),
				)
			}
		case ordersync.EffectArchive:
			if e.Order != nil {
				s.log.InfoContext(ctx, "order archived",
					slog.String("order_id", e.Order.ID),
					slog.String("status", string(e.Order.Status)),
				)
			}
		}
	}
}

// Run publishes queued ready notifications until ctx is done, then flushes
// what is still queued within a short grace period.
func (s *Service) Run(ctx context.Context) error {
	for {
		select {
		case o := <-s.ready:
			s.notifyReady(ctx, o)
		case <-ctx.Done():
			s.flush(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (s *Service) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	for {
		select {
		case o := <-s.ready:
			s.notifyReady(ctx, o)
		default:
			return
		}
	}
}

func (s *Service) notifyReady(ctx context.Context, o *domain.Order) {
	key := redisrepo.KeyNotifyReady(o.ID)
	if s.dedupe != nil {
		first, err := s.dedupe.Claim(ctx, key)
		if err != nil {
			s.log.WarnContext(ctx, "notify dedupe unavailable", slog.String("err", err.Error()))
		} else if !first {
			return
		}
	}

	if err := s.notifier.PublishOrderReady(ctx, o); err != nil {
		s.log.ErrorContext(ctx, "publish order ready failed",
			slog.String("order_id", o.ID),
			slog.String("err", err.Error()),
		)
		if s.dedupe != nil {
			_ = s.dedupe.Release(ctx, key)
		}
		return
	}

	s.log.InfoContext(ctx, "order ready published", slog.String("order_id", o.ID))
}
