package discovery

import (
	"math"
	"sort"

	"github.com/kirinyoku/barhop/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b domain.Coordinates) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

type NearbyVenue struct {
	Venue      domain.Venue `json:"venue"`
	DistanceKm float64      `json:"distance_km"`
}

// Nearby returns the venues within radiusKm of origin, closest first.
// Venues without valid coordinates are skipped.
func Nearby(venues []domain.Venue, origin domain.Coordinates, radiusKm float64) []NearbyVenue {
	out := make([]NearbyVenue, 0)
	for _, v := range venues {
		if !v.Coordinates.Valid() {
			continue
		}
		d := DistanceKm(origin, *v.Coordinates)
		if d > radiusKm {
			continue
		}
		out = append(out, NearbyVenue{Venue: v, DistanceKm: d})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
