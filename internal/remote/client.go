package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirinyoku/barhop/internal/repository"
)

// Client talks JSON to the backend API that owns venues, orders and search.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StatusError is returned for non-2xx responses that do not map to a
// repository sentinel.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d %s", e.Code, e.Body)
}

// request performs a GET-style call and decodes the body into response.
// 404 maps to repository.ErrNotFound and 5xx to repository.ErrUnavailable.
// An empty body or 204 leaves response untouched.
func (c *Client) request(
	ctx context.Context,
	method, endpoint string,
	query url.Values,
	response any,
) error {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return repository.ErrNotFound
	case res.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", repository.ErrUnavailable, res.StatusCode)
	case res.StatusCode < 200 || res.StatusCode >= 300:
		return &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if response == nil || res.StatusCode == http.StatusNoContent || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, response); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrBadPayload, err)
	}

	return nil
}
