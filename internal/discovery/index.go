package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirinyoku/barhop/internal/domain"
)

type QueryType string

const (
	QueryAmbiance QueryType = "ambiance"
	QueryName     QueryType = "name"
	QueryItem     QueryType = "item"
	QueryTrack    QueryType = "track"
)

var ErrUnknownQueryType = errors.New("unknown query type")

// ParseQueryType accepts an empty string as ambiance.
func ParseQueryType(s string) (QueryType, error) {
	switch qt := QueryType(strings.ToLower(strings.TrimSpace(s))); qt {
	case "", QueryAmbiance, QueryName:
		return QueryAmbiance, nil
	case QueryItem, QueryTrack:
		return qt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownQueryType, s)
	}
}

// RemoteSearcher resolves item and track queries that only the backend can
// answer.
type RemoteSearcher interface {
	SearchItems(ctx context.Context, query string) ([]domain.SearchSuggestion, error)
	SearchTracks(ctx context.Context, query string) ([]domain.SearchSuggestion, error)
}

// Index is an immutable, in-memory view over one venue snapshot. It is safe
// for concurrent use.
type Index struct {
	venues []domain.Venue
	byID   map[string]int
	remote RemoteSearcher
	now    func() time.Time
}

type Option func(*Index)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Index) { i.now = now }
}

// NewIndex ingests venues (dropping invalid ones) and builds the lookup.
// remote may be nil, in which case item and track queries return nothing.
func NewIndex(venues []domain.Venue, remote RemoteSearcher, opts ...Option) *Index {
	ingested := domain.IngestVenues(venues)

	idx := &Index{
		venues: ingested,
		byID:   make(map[string]int, len(ingested)),
		remote: remote,
		now:    time.Now,
	}
	for i, v := range ingested {
		if _, dup := idx.byID[v.ID]; !dup {
			idx.byID[v.ID] = i
		}
	}
	for _, o := range opts {
		o(idx)
	}

	return idx
}

// Search returns ranked suggestions for query. Remote results are filtered
// to venues in the index and deduplicated by venue id.
func (i *Index) Search(ctx context.Context, query string, qt QueryType) ([]domain.SearchSuggestion, error) {
	const op = "discovery.Index.Search"

	query = strings.TrimSpace(query)
	now := i.now()

	var (
		found []domain.SearchSuggestion
		err   error
	)

	switch qt {
	case "", QueryAmbiance, QueryName:
		found = BuildLocalSuggestions(i.venues, query)
	case QueryItem, QueryTrack:
		if query == "" || i.remote == nil {
			return []domain.SearchSuggestion{}, nil
		}
		if qt == QueryItem {
			found, err = i.remote.SearchItems(ctx, query)
		} else {
			found, err = i.remote.SearchTracks(ctx, query)
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		found = i.known(found)
	default:
		return nil, fmt.Errorf("%s:%w: %q", op, ErrUnknownQueryType, qt)
	}

	return RankSuggestions(found, i.venues, now), nil
}

func (i *Index) known(in []domain.SearchSuggestion) []domain.SearchSuggestion {
	out := make([]domain.SearchSuggestion, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := i.byID[s.VenueID]; !ok {
			continue
		}
		if _, ok := seen[s.VenueID]; ok {
			continue
		}
		seen[s.VenueID] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Venue looks a venue up by id, which is how a suggestion jumps back to it.
func (i *Index) Venue(id string) (domain.Venue, bool) {
	at, ok := i.byID[id]
	if !ok {
		return domain.Venue{}, false
	}
	return i.venues[at], true
}

func (i *Index) StatusOf(v domain.Venue) domain.VenueOpenStatus {
	return StatusColorFor(v, i.now())
}

func (i *Index) Nearby(origin domain.Coordinates, radiusKm float64) []NearbyVenue {
	return Nearby(i.venues, origin, radiusKm)
}

func (i *Index) Len() int { return len(i.venues) }
