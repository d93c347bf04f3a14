package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/barhop/internal/domain"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store reads the venue and order mirror tables. It never writes: the
// backend owns those rows.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

const maxTxAttempts = 3

// readOnly is the default for RunTx: every read inside fn sees one snapshot.
var readOnly = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

func (s *Store) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx DB) error,
) error {
	txOpts := readOnly
	if opts != nil {
		txOpts = *opts
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Venues() *VenueRepo { return &VenueRepo{pool: s.pool} }
func (s *Store) Orders() *OrderRepo { return &OrderRepo{pool: s.pool} }

// ListVenues lets the Store serve as a venue provider.
func (s *Store) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	return s.Venues().List(ctx)
}

// CurrentOrderByPhone reads the order and its items in one read-only
// snapshot so that a concurrent backend write cannot split them. It returns
// nil, nil when the customer has no order.
func (s *Store) CurrentOrderByPhone(ctx context.Context, phone string) (*domain.Order, error) {
	const op = "postgres.Store.CurrentOrderByPhone"

	var (
		out *domain.Order
		err error
	)
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
			o, err := s.Orders().With(tx).CurrentByPhone(ctx, phone)
			if err != nil {
				return err
			}
			out = o
			return nil
		})
		if !IsRetryable(err) {
			break
		}
	}
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
