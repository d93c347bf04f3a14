package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kirinyoku/barhop/internal/domain"
	"github.com/kirinyoku/barhop/internal/repository"
)

// CurrentOrderByPhone returns the customer's current order, or nil when the
// backend has none (404, 204 or a null body).
func (c *Client) CurrentOrderByPhone(ctx context.Context, phone string) (*domain.Order, error) {
	const op = "remote.Client.CurrentOrderByPhone"

	var o *domain.Order
	err := c.request(ctx, http.MethodGet, "/orders/current", url.Values{"phone": {phone}}, &o)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	if o == nil || o.ID == "" {
		return nil, nil
	}

	st, ok := domain.ParseOrderStatus(string(o.Status))
	if !ok {
		return nil, fmt.Errorf("%s:%w: status %q", op, repository.ErrBadPayload, o.Status)
	}
	o.Status = st

	return o, nil
}
