package httpgin

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/barhop/internal/discovery"
	"github.com/kirinyoku/barhop/internal/domain"
	"github.com/kirinyoku/barhop/internal/ordersync"
	"github.com/kirinyoku/barhop/internal/service/orders"
	"github.com/kirinyoku/barhop/internal/service/venues"
)

type VenueService interface {
	List(ctx context.Context) ([]domain.Venue, error)
	Search(ctx context.Context, query, queryType, clientID string) ([]venues.SearchResult, error)
	Status(ctx context.Context, id string) (domain.VenueOpenStatus, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]discovery.NearbyVenue, error)
	Refresh(ctx context.Context) error
}

type OrderService interface {
	Current(ctx context.Context, phone string) (ordersync.State, error)
	OpenSession(ctx context.Context, phone string) (*orders.LiveSession, error)
	HandleEffects(ctx context.Context, effects []ordersync.Effect)
}

type Services struct {
	Venues VenueService
	Orders OrderService
}

type RouterConfig struct {
	// AdminToken is the bearer token required on /admin. Empty disables it.
	AdminToken string
}

func NewRouter(
	svcs Services,
	cfg RouterConfig,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/venues", handleListVenues(svcs))
	r.GET("/venues/search", handleSearchVenues(svcs))
	r.GET("/venues/nearby", handleNearbyVenues(svcs))
	r.GET("/venues/:id/status", handleVenueStatus(svcs))

	r.GET("/orders/current", handleCurrentOrder(svcs))
	r.GET("/ws/orders", handleOrdersWS(svcs, logger))

	admin := r.Group("/admin", AdminAuth(cfg.AdminToken))
	{
		admin.POST("/venues/refresh", handleRefreshVenues(svcs))
	}

	return r
}

// @Summary  List venues
// @Success  200  {object}  VenueListResponse
// @Failure  503  {object}  ErrorResponse
// @Router   /venues [get]
func handleListVenues(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		vs, err := svcs.Venues.List(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, VenueListResponse{Venues: vs, Count: len(vs)}, "public, max-age=30", true)
	}
}

// @Summary  Search venues
// @Param    q     query  string  false  "search text"
// @Param    type  query  string  false  "ambiance (default), name, item or track"
// @Success  200  {object}  SearchResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  429  {object}  ErrorResponse "rate limited"
// @Router   /venues/search [get]
func handleSearchVenues(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Query("q")
		typ := c.DefaultQuery("type", string(discovery.QueryAmbiance))

		results, err := svcs.Venues.Search(c.Request.Context(), q, typ, c.ClientIP())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, SearchResponse{Query: strings.TrimSpace(q), Type: typ, Results: results})
	}
}

// @Summary  Venues around a point
// @Param    lat        query  number  true   "latitude"
// @Param    lng        query  number  true   "longitude"
// @Param    radius_km  query  number  false  "search radius in km"
// @Success  200  {object}  NearbyResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /venues/nearby [get]
func handleNearbyVenues(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, ok := parseFloatQuery(c, "lat", math.NaN())
		if !ok {
			return
		}
		lng, ok := parseFloatQuery(c, "lng", math.NaN())
		if !ok {
			return
		}
		radius, ok := parseFloatQuery(c, "radius_km", 0)
		if !ok {
			return
		}

		near, err := svcs.Venues.Nearby(c.Request.Context(), lat, lng, radius)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, NearbyResponse{Venues: near})
	}
}

// @Summary  Open status of a venue
// @Param    id  path  string  true  "Venue ID"
// @Success  200  {object}  VenueStatusResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id}/status [get]
func handleVenueStatus(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		st, err := svcs.Venues.Status(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, VenueStatusResponse{VenueID: id, VenueOpenStatus: st})
	}
}

// @Summary  Current and last order of a customer
// @Param    phone  query  string  true  "customer phone number"
// @Success  200  {object}  OrderStateResponse
// @Failure  400  {object}  ErrorResponse
// @Failure  503  {object}  ErrorResponse
// @Router   /orders/current [get]
func handleCurrentOrder(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svcs.Orders.Current(c.Request.Context(), c.Query("phone"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusOK, newOrderStateResponse(st))
	}
}

// @Summary  Drop the cached venue list
// @Security BearerAuth
// @Success  204
// @Failure  401  {object}  ErrorResponse
// @Router   /admin/venues/refresh [post]
func handleRefreshVenues(svcs Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Venues.Refresh(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func parseFloatQuery(c *gin.Context, name string, def float64) (float64, bool) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		if math.IsNaN(def) {
			badRequest(c, name+" is required")
			return 0, false
		}
		return def, true
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var rl venues.RateLimitedError

	switch {
	// venues service
	case errors.As(err, &rl):
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
	case errors.Is(err, venues.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, venues.ErrUnknownQueryType):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown query type"})
	case errors.Is(err, venues.ErrInvalidLocation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid location"})
	case errors.Is(err, venues.ErrVenuesUnavailable):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "venues unavailable"})
	// orders service
	case errors.Is(err, orders.ErrPhoneRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "phone is required"})
	case errors.Is(err, orders.ErrInvalidPhone):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid phone number"})
	case errors.Is(err, orders.ErrOrdersUnavailable):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "orders unavailable"})
	case errors.Is(err, context.Canceled):
		c.Status(499)
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
