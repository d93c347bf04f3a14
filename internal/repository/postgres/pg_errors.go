package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kirinyoku/barhop/internal/repository"
)

// IsRetryable reports serialization failures and deadlocks.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}

	return false
}

func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// wrapDBErr maps driver errors to repository errors and prefixes op.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		switch pge.Code {
		// undefined_table, insufficient_privilege: the mirror is not provisioned.
		case "42P01", "42501":
			return fmt.Errorf("%s:%w: %s", op, repository.ErrUnavailable, pge.Message)
		}
	}

	var ce *pgconn.ConnectError
	if errors.As(err, &ce) {
		return fmt.Errorf("%s:%w: %v", op, repository.ErrUnavailable, err)
	}

	return fmt.Errorf("%s:%w", op, err)
}
