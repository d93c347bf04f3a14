package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/barhop/internal/domain"
)

// friday is 2024-06-14, a Friday (weekday index 5).
func friday(hour, minute int) time.Time {
	return time.Date(2024, time.June, 14, hour, minute, 0, 0, time.UTC)
}

func everyDay(hours string) []string {
	week := make([]string, 7)
	for i := range week {
		week[i] = hours
	}
	return week
}

func venue(id, name, hours string) domain.Venue {
	return domain.Venue{
		ID:          id,
		Name:        name,
		WeeklyHours: everyDay(hours),
		Coordinates: &domain.Coordinates{Lat: 45.5, Lng: -73.57},
	}
}

func TestStatusColorFor(t *testing.T) {
	tests := []struct {
		name      string
		hours     []string
		now       time.Time
		wantColor domain.StatusColor
		wantLabel string
	}{
		{name: "no hours", hours: nil, now: friday(12, 0), wantColor: domain.StatusUnknown},
		{name: "short week", hours: []string{"10:00-22:00"}, now: friday(12, 0), wantColor: domain.StatusUnknown},
		{name: "closed marker", hours: everyDay("Closed"), now: friday(21, 0), wantColor: domain.StatusClosed, wantLabel: "closed today"},
		{name: "french marker", hours: everyDay("Vendredi: FERMÉ"), now: friday(21, 0), wantColor: domain.StatusClosed, wantLabel: "closed today"},
		{name: "unaccented french marker", hours: everyDay("ferme"), now: friday(3, 0), wantColor: domain.StatusClosed, wantLabel: "closed today"},
		{name: "unparseable is lenient", hours: everyDay("by appointment"), now: friday(12, 0), wantColor: domain.StatusOpen, wantLabel: "open"},
		{name: "open 24h clock", hours: everyDay("Friday: 11:00–03:00"), now: friday(12, 0), wantColor: domain.StatusOpen, wantLabel: "open until 03:00"},
		{name: "open 12h clock", hours: everyDay("11:00 AM – 11:30 PM"), now: friday(23, 0), wantColor: domain.StatusOpen, wantLabel: "open until 23:30"},
		{name: "opens later", hours: everyDay("18:00-23:00"), now: friday(12, 0), wantColor: domain.StatusOpensLater, wantLabel: "opens at 18:00"},
		{name: "h suffix", hours: everyDay("18h30 - 23h"), now: friday(12, 0), wantColor: domain.StatusOpensLater, wantLabel: "opens at 18:30"},
		{name: "pm compact", hours: everyDay("5pm-11pm"), now: friday(16, 59), wantColor: domain.StatusOpensLater, wantLabel: "opens at 17:00"},
		{name: "after close", hours: everyDay("10:00-11:00"), now: friday(12, 0), wantColor: domain.StatusClosed, wantLabel: "closed since 11:00"},
		{name: "open boundary inclusive", hours: everyDay("18:00-23:00"), now: friday(18, 0), wantColor: domain.StatusOpen, wantLabel: "open until 23:00"},
		{name: "close boundary inclusive", hours: everyDay("18:00-23:00"), now: friday(23, 0), wantColor: domain.StatusOpen, wantLabel: "open until 23:00"},
		{name: "same open and close", hours: everyDay("00:00-00:00"), now: friday(4, 0), wantColor: domain.StatusOpen, wantLabel: "open until 00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := StatusColorFor(domain.Venue{ID: "v", WeeklyHours: tc.hours}, tc.now)
			assert.Equal(t, tc.wantColor, got.Color)
			assert.Equal(t, tc.wantLabel, got.Label)
			assert.Equal(t, tc.wantColor.Hex(), got.Hex)
		})
	}
}

func TestStatusColorFor_ClosedMarkerIgnoresTime(t *testing.T) {
	v := domain.Venue{ID: "v", WeeklyHours: everyDay("CLOSED (open 18:00-02:00 in summer)")}

	for h := 0; h < 24; h++ {
		got := StatusColorFor(v, friday(h, 30))
		assert.Equal(t, domain.StatusClosed, got.Color, "hour %d", h)
	}
}

func TestStatusColorFor_Overnight(t *testing.T) {
	v := domain.Venue{ID: "v", WeeklyHours: everyDay("23:00–03:00")}

	// Saturday 01:00 falls inside Friday's 23:00–03:00.
	got := StatusColorFor(v, friday(1, 0).AddDate(0, 0, 1))
	assert.Equal(t, domain.StatusOpen, got.Color)
	assert.Equal(t, "open until 03:00", got.Label)

	got = StatusColorFor(v, friday(23, 30))
	assert.Equal(t, domain.StatusOpen, got.Color)

	got = StatusColorFor(v, friday(12, 0))
	assert.Equal(t, domain.StatusOpensLater, got.Color)
	assert.Equal(t, 23*60, got.OpensAtMinute)
}

func TestStatusColorFor_OvernightTwelveHourClock(t *testing.T) {
	v := domain.Venue{ID: "v", WeeklyHours: everyDay("11:00 PM – 3:00 AM")}

	got := StatusColorFor(v, friday(2, 15))
	assert.Equal(t, domain.StatusOpen, got.Color)
	assert.Equal(t, "open until 03:00", got.Label)

	got = StatusColorFor(v, friday(4, 0))
	assert.Equal(t, domain.StatusOpensLater, got.Color)
	assert.Equal(t, "opens at 23:00", got.Label)
}

func TestParseHours(t *testing.T) {
	tests := []struct {
		in        string
		open, end int
		ok        bool
	}{
		{in: "11:00 PM – 3:00 AM", open: 23 * 60, end: 3 * 60, ok: true},
		{in: "Friday: 11:00–03:00", open: 11 * 60, end: 3 * 60, ok: true},
		{in: "12 a.m. - 12 p.m.", open: 0, end: 12 * 60, ok: true},
		{in: "17h-2h", open: 17 * 60, end: 2 * 60, ok: true},
		{in: "9", ok: false},
		{in: "25:00-26:00", ok: false},
		{in: "13pm-2am", ok: false},
		{in: "", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			open, end, ok := ParseHours(tc.in)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.open, open)
				assert.Equal(t, tc.end, end)
			}
		})
	}
}

func TestBuildLocalSuggestions_EmptyQuery(t *testing.T) {
	venues := []domain.Venue{venue("a", "Bar A", "10:00-23:00")}

	for _, q := range []string{"", "   ", "\t"} {
		got := BuildLocalSuggestions(venues, q)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestBuildLocalSuggestions_Precedence(t *testing.T) {
	venues := []domain.Venue{
		{ID: "name", Name: "Jazz Cellar", MusicGenres: domain.StringList{"jazz"}},
		{ID: "music", Name: "Le Caveau", MusicGenres: domain.StringList{"rock", "Acid Jazz"}, Tags: domain.StringList{"jazz"}},
		{ID: "music-localized", Name: "Nocturne", MusicGenres: domain.StringList{"jazz"}, MusicGenresLocalized: domain.StringList{"Jazz manouche"}},
		{ID: "tag", Name: "Corner", Tags: domain.StringList{"live jazz"}},
		{ID: "desc", Name: "Cellar", Description: "A cozy cellar with live jazz every night and cheap drinks at the counter"},
		{ID: "short-desc", Name: "Tiny", DescriptionLocalized: "jazz"},
		{ID: "none", Name: "Pub", Tags: domain.StringList{"darts"}},
	}

	got := BuildLocalSuggestions(venues, "  JAZZ ")

	assert.Equal(t, []domain.SearchSuggestion{
		{VenueID: "name", MatchedTerm: "Jazz Cellar"},
		{VenueID: "music", MatchedTerm: "Acid Jazz"},
		{VenueID: "music-localized", MatchedTerm: "Jazz manouche"},
		{VenueID: "tag", MatchedTerm: "live jazz"},
		{VenueID: "desc", MatchedTerm: "…zy cellar with live jazz every night and che…"},
		{VenueID: "short-desc", MatchedTerm: "jazz"},
	}, got)
}

func TestBuildLocalSuggestions_VenueWithoutTagsStillMatches(t *testing.T) {
	venues := []domain.Venue{{ID: "a", Name: "Quiet Place", Description: "wine and cheese"}}

	got := BuildLocalSuggestions(venues, "cheese")
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].VenueID)
}

func rankFixture() []domain.Venue {
	return []domain.Venue{
		venue("A", "Bar A", "10:00-23:00"),
		venue("B", "Bar B", "14:00-23:00"),
		venue("C", "Bar C", "Closed"),
		venue("D", "Bar D", "18:00-02:00"),
		venue("E", "Bar E", "20:00-02:00"),
	}
}

func ids(in []domain.SearchSuggestion) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, s.VenueID)
	}
	return out
}

func TestRankSuggestions_StatusOrder(t *testing.T) {
	venues := rankFixture()[:3]

	suggestions := BuildLocalSuggestions([]domain.Venue{venues[2], venues[1], venues[0]}, "bar")
	got := RankSuggestions(suggestions, venues, friday(12, 0))

	assert.Equal(t, []string{"A", "B", "C"}, ids(got))
}

func TestRankSuggestions_OpensLaterByOpeningTime(t *testing.T) {
	venues := rankFixture()
	in := []domain.SearchSuggestion{
		{VenueID: "C"}, {VenueID: "E"}, {VenueID: "D"}, {VenueID: "B"}, {VenueID: "A"},
	}

	got := RankSuggestions(in, venues, friday(12, 0))

	assert.Equal(t, []string{"A", "B", "D", "E", "C"}, ids(got))
	assert.Equal(t, []string{"C", "E", "D", "B", "A"}, ids(in), "input must not be reordered")
}

func TestRankSuggestions_StableAndUnknownLast(t *testing.T) {
	venues := []domain.Venue{
		venue("open1", "x", "00:00-23:59"),
		venue("open2", "x", "00:00-23:59"),
		{ID: "nohours", Name: "x"},
	}
	in := []domain.SearchSuggestion{
		{VenueID: "ghost"}, {VenueID: "open2"}, {VenueID: "nohours"}, {VenueID: "open1"},
	}

	got := RankSuggestions(in, venues, friday(12, 0))

	assert.Equal(t, []string{"open2", "open1", "ghost", "nohours"}, ids(got))
}

func TestNearby(t *testing.T) {
	venues := []domain.Venue{
		{ID: "far", Coordinates: &domain.Coordinates{Lat: 45.60, Lng: -73.57}},
		{ID: "near", Coordinates: &domain.Coordinates{Lat: 45.501, Lng: -73.57}},
		{ID: "nocoords"},
	}

	got := Nearby(venues, domain.Coordinates{Lat: 45.5, Lng: -73.57}, 20)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Venue.ID)
	assert.InDelta(t, 0.111, got[0].DistanceKm, 0.01)
	assert.InDelta(t, 11.1, got[1].DistanceKm, 0.1)

	assert.Len(t, Nearby(venues, domain.Coordinates{Lat: 45.5, Lng: -73.57}, 1), 1)
}

type fakeRemote struct {
	items, tracks []domain.SearchSuggestion
	err           error
	queries       []string
}

func (f *fakeRemote) SearchItems(_ context.Context, q string) ([]domain.SearchSuggestion, error) {
	f.queries = append(f.queries, "item:"+q)
	return f.items, f.err
}

func (f *fakeRemote) SearchTracks(_ context.Context, q string) ([]domain.SearchSuggestion, error) {
	f.queries = append(f.queries, "track:"+q)
	return f.tracks, f.err
}

func TestIndex_Search(t *testing.T) {
	remote := &fakeRemote{
		items: []domain.SearchSuggestion{
			{VenueID: "C", MatchedTerm: "IPA"},
			{VenueID: "unknown", MatchedTerm: "IPA"},
			{VenueID: "A", MatchedTerm: "IPA"},
			{VenueID: "A", MatchedTerm: "Hazy IPA"},
		},
		tracks: []domain.SearchSuggestion{{VenueID: "B", MatchedTerm: "Blue in Green"}},
	}
	idx := NewIndex(rankFixture(), remote, WithClock(func() time.Time { return friday(12, 0) }))
	ctx := context.Background()

	got, err := idx.Search(ctx, "bar", QueryAmbiance)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D", "E", "C"}, ids(got))

	got, err = idx.Search(ctx, " ipa ", QueryItem)
	require.NoError(t, err)
	assert.Equal(t, []domain.SearchSuggestion{
		{VenueID: "A", MatchedTerm: "IPA"},
		{VenueID: "C", MatchedTerm: "IPA"},
	}, got)

	got, err = idx.Search(ctx, "blue", QueryTrack)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids(got))

	got, err = idx.Search(ctx, "", QueryTrack)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Equal(t, []string{"item:ipa", "track:blue"}, remote.queries)

	_, err = idx.Search(ctx, "bar", QueryType("genre"))
	assert.ErrorIs(t, err, ErrUnknownQueryType)
}

func TestIndex_SearchRemoteError(t *testing.T) {
	boom := errors.New("boom")
	idx := NewIndex(rankFixture(), &fakeRemote{err: boom})

	_, err := idx.Search(context.Background(), "ipa", QueryItem)
	assert.ErrorIs(t, err, boom)
}

func TestIndex_DropsInvalidVenuesAndLooksUp(t *testing.T) {
	venues := append(rankFixture(), domain.Venue{ID: "nocoords", Name: "Bar X"})
	idx := NewIndex(venues, nil, WithClock(func() time.Time { return friday(12, 0) }))

	assert.Equal(t, 5, idx.Len())
	_, ok := idx.Venue("nocoords")
	assert.False(t, ok)

	v, ok := idx.Venue("B")
	require.True(t, ok)
	assert.Equal(t, domain.StatusOpensLater, idx.StatusOf(v).Color)

	got, err := idx.Search(context.Background(), "ipa", QueryItem)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseQueryType(t *testing.T) {
	for in, want := range map[string]QueryType{"": QueryAmbiance, "name": QueryAmbiance, "Ambiance": QueryAmbiance, "item": QueryItem, "TRACK": QueryTrack} {
		got, err := ParseQueryType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseQueryType("genre")
	assert.ErrorIs(t, err, ErrUnknownQueryType)
}
