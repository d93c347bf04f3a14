package venues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/kirinyoku/barhop/internal/discovery"
	"github.com/kirinyoku/barhop/internal/domain"
	"github.com/kirinyoku/barhop/internal/repository"
	redisrepo "github.com/kirinyoku/barhop/internal/repository/redis"
)

// Provider is the source of truth for the venue list: the backend API or
// the Postgres mirror.
type Provider interface {
	ListVenues(ctx context.Context) ([]domain.Venue, error)
}

type Limiter interface {
	Allow(ctx context.Context, id string) (bool, int64, time.Duration, error)
}

type Config struct {
	VenuesTTL       time.Duration
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

type Service struct {
	provider Provider
	remote   discovery.RemoteSearcher
	cache    *redisrepo.Cache
	limiter  Limiter
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// New wires the venue service. cache, remote and limiter may be nil.
func New(
	provider Provider,
	remote discovery.RemoteSearcher,
	cache *redisrepo.Cache,
	limiter Limiter,
	cfg Config,
	log *slog.Logger,
) *Service {
	if cfg.VenuesTTL <= 0 {
		cfg.VenuesTTL = 5 * time.Minute
	}

	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = 2
	}

	if cfg.MaxRadiusKm <= 0 {
		cfg.MaxRadiusKm = 50
	}

	return &Service{
		provider: provider,
		remote:   remote,
		cache:    cache,
		limiter:  limiter,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// SearchResult is a ranked suggestion enriched with what the list view
// renders next to it.
type SearchResult struct {
	domain.SearchSuggestion
	Name   string                 `json:"name"`
	Status domain.VenueOpenStatus `json:"open_status"`
}

// List returns the ingested venue list, served from Redis when fresh.
//
// Parameters:
//   - ctx: request-scoped context.
//
// Returns:
//   - []domain.Venue: venues with valid coordinates, in provider order.
//   - error: venues.ErrVenuesUnavailable if the provider cannot be reached.
func (s *Service) List(ctx context.Context) ([]domain.Venue, error) {
	const op = "service.venues.List"

	load := func(ctx context.Context) ([]domain.Venue, error) {
		raw, err := s.provider.ListVenues(ctx)
		if err != nil {
			return nil, err
		}
		return domain.IngestVenues(raw), nil
	}

	var (
		venues []domain.Venue
		err    error
	)
	if s.cache != nil {
		venues, err = redisrepo.GetOrSetJSON(ctx, s.cache, redisrepo.KeyVenues(), s.cfg.VenuesTTL, load)
	} else {
		venues, err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			return nil, fmt.Errorf("%s: %w: %v", op, ErrVenuesUnavailable, err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return venues, nil
}

func (s *Service) index(ctx context.Context) (*discovery.Index, error) {
	venues, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return discovery.NewIndex(venues, s.remote, discovery.WithClock(s.now)), nil
}

// Search answers a query typed in the discovery search box.
//
// Parameters:
//   - ctx: request-scoped context.
//   - query: raw user input; blank input yields no results.
//   - queryType: "ambiance" (or "name", or empty), "item" or "track".
//   - clientID: rate limit bucket, usually the client IP.
//
// Returns:
//   - []SearchResult: suggestions ranked open first.
//   - error: venues.ErrUnknownQueryType, venues.ErrRateLimited (as
//     RateLimitedError) or venues.ErrVenuesUnavailable.
func (s *Service) Search(ctx context.Context, query, queryType, clientID string) ([]SearchResult, error) {
	const op = "service.venues.Search"

	qt, err := discovery.ParseQueryType(queryType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnknownQueryType, queryType)
	}

	if s.limiter != nil {
		allowed, _, retryAfter, err := s.limiter.Allow(ctx, clientID)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "rate limiter unavailable, allowing request", slog.String("err", err.Error()))
		case !allowed:
			return nil, fmt.Errorf("%s: %w", op, RateLimitedError{RetryAfter: retryAfter})
		}
	}

	idx, err := s.index(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	suggestions, err := idx.Search(ctx, query, qt)
	if err != nil {
		if errors.Is(err, discovery.ErrUnknownQueryType) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnknownQueryType)
		}
		return nil, fmt.Errorf("%s: %w: %v", op, ErrVenuesUnavailable, err)
	}

	out := make([]SearchResult, 0, len(suggestions))
	for _, sg := range suggestions {
		v, _ := idx.Venue(sg.VenueID)
		out = append(out, SearchResult{
			SearchSuggestion: sg,
			Name:             v.Name,
			Status:           idx.StatusOf(v),
		})
	}

	return out, nil
}

// Status derives the open status of one venue for the current time.
//
// Returns:
//   - error: venues.ErrVenueNotFound if id is not in the venue list.
func (s *Service) Status(ctx context.Context, id string) (domain.VenueOpenStatus, error) {
	const op = "service.venues.Status"

	idx, err := s.index(ctx)
	if err != nil {
		return domain.VenueOpenStatus{}, fmt.Errorf("%s: %w", op, err)
	}

	v, ok := idx.Venue(id)
	if !ok {
		return domain.VenueOpenStatus{}, fmt.Errorf("%s: %w", op, ErrVenueNotFound)
	}

	return idx.StatusOf(v), nil
}

// Nearby lists venues around a point, closest first. A zero radius uses the
// configured default; radii above the configured maximum are clamped.
//
// Returns:
//   - error: venues.ErrInvalidLocation for out-of-range coordinates or a
//     negative radius.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]discovery.NearbyVenue, error) {
	const op = "service.venues.Nearby"

	origin := domain.Coordinates{Lat: lat, Lng: lng}
	if !origin.Valid() || radiusKm < 0 || math.IsNaN(radiusKm) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidLocation)
	}

	if radiusKm == 0 {
		radiusKm = s.cfg.DefaultRadiusKm
	}
	radiusKm = math.Min(radiusKm, s.cfg.MaxRadiusKm)

	idx, err := s.index(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return idx.Nearby(origin, radiusKm), nil
}

// Refresh drops the cached venue list.
func (s *Service) Refresh(ctx context.Context) error {
	const op = "service.venues.Refresh"

	if s.cache == nil {
		return nil
	}

	if err := s.cache.InvalidateVenues(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
