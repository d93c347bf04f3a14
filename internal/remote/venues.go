package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kirinyoku/barhop/internal/domain"
	"github.com/kirinyoku/barhop/internal/repository"
)

// ListVenues fetches every venue. The backend answers either with a bare
// array or with an object wrapping it under "venues" or "data".
func (c *Client) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	const op = "remote.Client.ListVenues"

	var raw json.RawMessage
	if err := c.request(ctx, http.MethodGet, "/venues", nil, &raw); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	venues, err := decodeVenues(raw)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return venues, nil
}

func decodeVenues(raw json.RawMessage) ([]domain.Venue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Venue{}, nil
	}

	if raw[0] != '[' {
		var wrapped struct {
			Venues json.RawMessage `json:"venues"`
			Data   json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrBadPayload, err)
		}
		raw = wrapped.Venues
		if len(raw) == 0 {
			raw = wrapped.Data
		}
		if len(raw) == 0 {
			return []domain.Venue{}, nil
		}
	}

	var out []domain.Venue
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrBadPayload, err)
	}
	if out == nil {
		out = []domain.Venue{}
	}

	return out, nil
}
