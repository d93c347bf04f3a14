package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kirinyoku/barhop/internal/domain"
)

// SearchItems asks the backend which venues serve a menu item matching q.
func (c *Client) SearchItems(ctx context.Context, q string) ([]domain.SearchSuggestion, error) {
	const op = "remote.Client.SearchItems"
	return c.search(ctx, op, "/search/items", q)
}

// SearchTracks asks the backend which venues have a track matching q in
// their playlist.
func (c *Client) SearchTracks(ctx context.Context, q string) ([]domain.SearchSuggestion, error) {
	const op = "remote.Client.SearchTracks"
	return c.search(ctx, op, "/search/tracks", q)
}

func (c *Client) search(ctx context.Context, op, endpoint, q string) ([]domain.SearchSuggestion, error) {
	var out []domain.SearchSuggestion
	if err := c.request(ctx, http.MethodGet, endpoint, url.Values{"q": {q}}, &out); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	filtered := make([]domain.SearchSuggestion, 0, len(out))
	for _, s := range out {
		if s.VenueID == "" {
			continue
		}
		filtered = append(filtered, s)
	}

	return filtered, nil
}
