package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Venue is a read-only snapshot of a bar or establishment as served by the
// backend API.
type Venue struct {
	ID                   string       `json:"venue_id"`
	Name                 string       `json:"name"`
	Description          string       `json:"description,omitempty"`
	DescriptionLocalized string       `json:"description_localized,omitempty"`
	Tags                 StringList   `json:"tags"`
	TagsLocalized        StringList   `json:"tags_localized"`
	MusicGenres          StringList   `json:"music_genres"`
	MusicGenresLocalized StringList   `json:"music_genres_localized"`
	WeeklyHours          []string     `json:"weekly_hours"` // index 0 = Sunday
	Coordinates          *Coordinates `json:"coordinates,omitempty"`
	Price                string       `json:"price,omitempty"`
	URL                  string       `json:"url,omitempty"`
	Phone                string       `json:"phone,omitempty"`
	Rating               float64      `json:"rating,omitempty"`
	RatingCount          int          `json:"rating_count,omitempty"`
}

// DisplayDescription returns the localized description when present.
func (v Venue) DisplayDescription() string {
	if strings.TrimSpace(v.DescriptionLocalized) != "" {
		return v.DescriptionLocalized
	}
	return v.Description
}

// DisplayTags returns the localized tags when present.
func (v Venue) DisplayTags() StringList {
	if len(v.TagsLocalized) > 0 {
		return v.TagsLocalized
	}
	return v.Tags
}

// DisplayMusicGenres returns the localized music genres when present.
func (v Venue) DisplayMusicGenres() StringList {
	if len(v.MusicGenresLocalized) > 0 {
		return v.MusicGenresLocalized
	}
	return v.MusicGenres
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UnmarshalJSON accepts numbers or numeric strings and never fails; anything
// else decodes to NaN so that Valid reports false.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	aux := struct {
		Lat any `json:"lat"`
		Lng any `json:"lng"`
		Lon any `json:"lon"`
	}{}

	c.Lat, c.Lng = math.NaN(), math.NaN()

	if err := json.Unmarshal(data, &aux); err != nil {
		return nil
	}

	lng := aux.Lng
	if lng == nil {
		lng = aux.Lon
	}

	c.Lat = toFloat(aux.Lat)
	c.Lng = toFloat(lng)

	return nil
}

func (c *Coordinates) Valid() bool {
	if c == nil {
		return false
	}
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// IngestVenues drops venues that cannot be placed on a map or have no id.
func IngestVenues(in []Venue) []Venue {
	out := make([]Venue, 0, len(in))
	for _, v := range in {
		if v.ID == "" || !v.Coordinates.Valid() {
			continue
		}
		out = append(out, v)
	}
	return out
}

type StatusColor string

const (
	StatusOpen       StatusColor = "open"
	StatusOpensLater StatusColor = "opens_later"
	StatusClosed     StatusColor = "closed"
	StatusUnknown    StatusColor = "unknown"
)

// Hex is the badge color used by the map and list views.
func (c StatusColor) Hex() string {
	switch c {
	case StatusOpen:
		return "#22c55e"
	case StatusOpensLater:
		return "#f97316"
	case StatusClosed:
		return "#ef4444"
	default:
		return "#9ca3af"
	}
}

// Rank orders statuses for search suggestions: open venues first.
func (c StatusColor) Rank() int {
	switch c {
	case StatusOpen:
		return 0
	case StatusOpensLater:
		return 1
	case StatusClosed:
		return 2
	default:
		return 3
	}
}

type VenueOpenStatus struct {
	Color StatusColor `json:"status"`
	Hex   string      `json:"color"`
	Label string      `json:"label,omitempty"`
	// OpensAtMinute is the opening minute-of-day, set for StatusOpensLater.
	OpensAtMinute int `json:"opens_at_minute,omitempty"`
}

type SearchSuggestion struct {
	VenueID     string `json:"venue_id"`
	MatchedTerm string `json:"matched_term"`
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderReady      OrderStatus = "ready"
	OrderDone       OrderStatus = "done"
)

// ParseOrderStatus maps the spellings used by the backend and the POS
// terminals onto OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "received":
		return OrderPending, true
	case "in_progress", "in-progress", "inprogress", "in progress", "preparing":
		return OrderInProgress, true
	case "ready":
		return OrderReady, true
	case "done", "completed", "picked_up":
		return OrderDone, true
	default:
		return "", false
	}
}

type OrderItem struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type Order struct {
	ID          string      `json:"order_id"`
	Items       []OrderItem `json:"items"`
	Total       float64     `json:"total"`
	Status      OrderStatus `json:"status"`
	PickupCode  string      `json:"pickup_code,omitempty"`
	PickupColor string      `json:"pickup_color,omitempty"`
}

func (o *Order) IsTerminal() bool {
	return o != nil && o.Status == OrderDone
}

// Clone returns a deep copy so that archived snapshots never alias live state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	if o.Items != nil {
		cp.Items = make([]OrderItem, len(o.Items))
		copy(cp.Items, o.Items)
	}
	return &cp
}
