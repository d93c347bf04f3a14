package venues

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrVenueNotFound     = errors.New("venue not found")
	ErrUnknownQueryType  = errors.New("unknown query type")
	ErrRateLimited       = errors.New("too many search requests")
	ErrInvalidLocation   = errors.New("invalid location")
	ErrVenuesUnavailable = errors.New("venues unavailable")
)

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("too many search requests, retry in %s", e.RetryAfter)
}

func (e RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
