package httpgin

import (
	"github.com/kirinyoku/barhop/internal/discovery"
	"github.com/kirinyoku/barhop/internal/domain"
	"github.com/kirinyoku/barhop/internal/ordersync"
	"github.com/kirinyoku/barhop/internal/service/venues"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type VenueListResponse struct {
	Venues []domain.Venue `json:"venues"`
	Count  int            `json:"count"`
}

type SearchResponse struct {
	Query   string                `json:"query"`
	Type    string                `json:"type"`
	Results []venues.SearchResult `json:"results"`
}

type VenueStatusResponse struct {
	VenueID string `json:"venue_id"`
	domain.VenueOpenStatus
}

type NearbyResponse struct {
	Venues []discovery.NearbyVenue `json:"venues"`
}

type OrderStateResponse struct {
	Phase   string        `json:"phase"`
	Current *domain.Order `json:"current"`
	Last    *domain.Order `json:"last"`
}

func newOrderStateResponse(st ordersync.State) OrderStateResponse {
	st = st.Visible()
	return OrderStateResponse{
		Phase:   st.Phase().String(),
		Current: st.Current,
		Last:    st.Last,
	}
}

const (
	frameState = "state"
	frameReady = "ready"
)

// WSFrame is one server-to-client message on /ws/orders.
type WSFrame struct {
	Type  string              `json:"type"`
	State *OrderStateResponse `json:"state,omitempty"`
	Order *domain.Order       `json:"order,omitempty"`
}
