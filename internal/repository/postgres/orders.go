package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/barhop/internal/domain"
	"github.com/kirinyoku/barhop/internal/repository"
)

type OrderRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OrderRepo) With(db DB) *OrderRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OrderRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CurrentByPhone retrieves the most recent order placed with phone, items
// included.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - phone: customer phone number as stored by the backend.
//
// Returns:
//   - *domain.Order: the latest order, whatever its status.
//   - error: repository.ErrNotFound if the customer has no order;
//     repository.ErrBadPayload if the stored status is unknown.
func (r *OrderRepo) CurrentByPhone(ctx context.Context, phone string) (*domain.Order, error) {
	const op = "postgres.OrderRepo.CurrentByPhone"

	db := r.handle()

	var (
		o      domain.Order
		status string
	)
	err := db.QueryRow(ctx,
		`SELECT id, status, total::float8, COALESCE(pickup_code, ''), COALESCE(pickup_color, '')
		   FROM orders
		  WHERE phone = $1
		  ORDER BY created_at DESC
		  LIMIT 1`,
		phone,
	).Scan(&o.ID, &status, &o.Total, &o.PickupCode, &o.PickupColor)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	st, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%s:%w: status %q", op, repository.ErrBadPayload, status)
	}
	o.Status = st

	items, err := r.Items(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

// Items lists the lines of an order in insertion order.
func (r *OrderRepo) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const op = "postgres.OrderRepo.Items"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT item_id, name, quantity, unit_price::float8
		   FROM order_items
		  WHERE order_id = $1
		  ORDER BY position`,
		orderID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.OrderItem, 0)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ItemID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, it)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
