package discovery

import (
	"sort"
	"time"

	"github.com/kirinyoku/barhop/internal/domain"
)

// RankSuggestions orders suggestions so that open venues come first, then
// venues opening later today by opening time, then closed and unknown ones.
// Ties keep their input order. Suggestions for venues absent from venues rank
// as unknown. The input slice is not modified.
func RankSuggestions(suggestions []domain.SearchSuggestion, venues []domain.Venue, now time.Time) []domain.SearchSuggestion {
	byID := make(map[string]domain.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}

	statuses := make(map[string]domain.VenueOpenStatus, len(suggestions))
	for _, s := range suggestions {
		if _, done := statuses[s.VenueID]; done {
			continue
		}
		if v, ok := byID[s.VenueID]; ok {
			statuses[s.VenueID] = StatusColorFor(v, now)
		} else {
			statuses[s.VenueID] = newStatus(domain.StatusUnknown, "")
		}
	}

	out := make([]domain.SearchSuggestion, len(suggestions))
	copy(out, suggestions)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := statuses[out[i].VenueID], statuses[out[j].VenueID]
		if a.Color.Rank() != b.Color.Rank() {
			return a.Color.Rank() < b.Color.Rank()
		}
		if a.Color == domain.StatusOpensLater {
			return a.OpensAtMinute < b.OpensAtMinute
		}
		return false
	})

	return out
}
