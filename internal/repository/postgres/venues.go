package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/barhop/internal/domain"
)

type VenueRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *VenueRepo) With(db DB) *VenueRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *VenueRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const selectVenues = `
SELECT venue_id,
       name,
       COALESCE(description, ''),
       COALESCE(description_localized, ''),
       COALESCE(tags::text, ''),
       COALESCE(tags_localized::text, ''),
       COALESCE(music_genres::text, ''),
       COALESCE(music_genres_localized::text, ''),
       COALESCE(weekly_hours, '{}'::text[]),
       lat,
       lng,
       COALESCE(price, ''),
       COALESCE(url, ''),
       COALESCE(phone, ''),
       COALESCE(rating, 0)::float8,
       COALESCE(rating_count, 0)
  FROM venues
 ORDER BY name, venue_id`

// List returns every mirrored venue.
//
// List-valued columns may hold a JSON array, a JSON-encoded string or a
// comma-separated string depending on how the row was imported; they are cast
// to text and decoded with domain.NormalizeList. Rows with NULL coordinates
// come back with nil Coordinates and are dropped later at ingestion.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//
// Returns:
//   - []domain.Venue: all venues, possibly empty.
//   - error: wrapped driver error.
func (r *VenueRepo) List(ctx context.Context) ([]domain.Venue, error) {
	const op = "postgres.VenueRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx, selectVenues)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.Venue, 0)
	for rows.Next() {
		var (
			v                              domain.Venue
			tags, tagsLoc, music, musicLoc string
			lat, lng                       *float64
		)
		if err := rows.Scan(
			&v.ID, &v.Name, &v.Description, &v.DescriptionLocalized,
			&tags, &tagsLoc, &music, &musicLoc,
			&v.WeeklyHours, &lat, &lng,
			&v.Price, &v.URL, &v.Phone, &v.Rating, &v.RatingCount,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		v.Tags = domain.NormalizeList(tags)
		v.TagsLocalized = domain.NormalizeList(tagsLoc)
		v.MusicGenres = domain.NormalizeList(music)
		v.MusicGenresLocalized = domain.NormalizeList(musicLoc)
		if lat != nil && lng != nil {
			v.Coordinates = &domain.Coordinates{Lat: *lat, Lng: *lng}
		}

		out = append(out, v)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
