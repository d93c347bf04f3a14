package service

import (
	"log/slog"

	"github.com/kirinyoku/barhop/internal/discovery"
	"github.com/kirinyoku/barhop/internal/ordersync"
	redisrepo "github.com/kirinyoku/barhop/internal/repository/redis"
	"github.com/kirinyoku/barhop/internal/service/orders"
	"github.com/kirinyoku/barhop/internal/service/venues"
)

type Services struct {
	Venues *venues.Service
	Orders *orders.Service
}

type Config struct {
	Venues venues.Config
}

type Deps struct {
	VenueProvider venues.Provider
	OrderProvider orders.Provider
	Remote        discovery.RemoteSearcher
	Cache         *redisrepo.Cache
	Limiter       venues.Limiter
	Hub           *ordersync.Hub
	Notifier      orders.Notifier
	Dedupe        orders.Deduper
}

func NewServices(deps Deps, cfg Config, log *slog.Logger) *Services {
	return &Services{
		Venues: venues.New(deps.VenueProvider, deps.Remote, deps.Cache, deps.Limiter, cfg.Venues, log),
		Orders: orders.New(deps.OrderProvider, deps.Hub, deps.Notifier, deps.Dedupe, log),
	}
}
