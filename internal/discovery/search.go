package discovery

import (
	"strings"
	"unicode"

	"github.com/kirinyoku/barhop/internal/domain"
)

// excerptRadius is the number of characters kept on each side of a
// description match.
const excerptRadius = 20

const ellipsis = "…"

// BuildLocalSuggestions filters venues by a case-insensitive substring match
// on name, music genres, tags and description, in that order of precedence.
// The first matching field determines MatchedTerm and a venue is reported at
// most once. An empty query yields no suggestions.
func BuildLocalSuggestions(venues []domain.Venue, rawQuery string) []domain.SearchSuggestion {
	query := []rune(strings.TrimSpace(rawQuery))
	out := make([]domain.SearchSuggestion, 0)
	if len(query) == 0 {
		return out
	}
	query = lowerRunes(query)

	for _, v := range venues {
		term, ok := matchVenue(v, query)
		if !ok {
			continue
		}
		out = append(out, domain.SearchSuggestion{VenueID: v.ID, MatchedTerm: term})
	}

	return out
}

func matchVenue(v domain.Venue, query []rune) (string, bool) {
	if indexFold(v.Name, query) >= 0 {
		return v.Name, true
	}

	for _, g := range v.DisplayMusicGenres() {
		if indexFold(g, query) >= 0 {
			return g, true
		}
	}

	for _, t := range v.DisplayTags() {
		if indexFold(t, query) >= 0 {
			return t, true
		}
	}

	desc := v.DisplayDescription()
	if at := indexFold(desc, query); at >= 0 {
		return excerpt([]rune(desc), at, len(query)), true
	}

	return "", false
}

// indexFold returns the rune offset of the lowered query in s, or -1.
func indexFold(s string, query []rune) int {
	hay := lowerRunes([]rune(s))
	n := len(query)
	for i := 0; i+n <= len(hay); i++ {
		if runesEqual(hay[i:i+n], query) {
			return i
		}
	}
	return -1
}

func excerpt(desc []rune, at, n int) string {
	start := max(at-excerptRadius, 0)
	end := min(at+n+excerptRadius, len(desc))

	var b strings.Builder
	if start > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(strings.TrimSpace(string(desc[start:end])))
	if end < len(desc) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

func lowerRunes(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
