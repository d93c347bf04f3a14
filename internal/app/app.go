package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/barhop/internal/config"
	"github.com/kirinyoku/barhop/internal/ordersync"
	"github.com/kirinyoku/barhop/internal/postgres"
	"github.com/kirinyoku/barhop/internal/redis"
	"github.com/kirinyoku/barhop/internal/remote"
	kafkarepo "github.com/kirinyoku/barhop/internal/repository/kafka"
	postgresrepo "github.com/kirinyoku/barhop/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/barhop/internal/repository/redis"
	"github.com/kirinyoku/barhop/internal/service"
	"github.com/kirinyoku/barhop/internal/service/orders"
	"github.com/kirinyoku/barhop/internal/service/venues"
	httpgin "github.com/kirinyoku/barhop/internal/transport/http/gin"
)

// orderStream delivers raw order update messages to handler until ctx ends.
type orderStream interface {
	Subscribe(ctx context.Context, handler func(ctx context.Context, payload []byte)) error
}

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	hub        *ordersync.Hub
	stream     orderStream
	closers    []func() error
	orders     *orders.Service
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx := context.Background()

	rdb, err := redis.New(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		hub:     ordersync.NewHub(logger),
		closers: []func() error{rdb.Close},
	}

	// Initialize repositories
	api := remote.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	cache := redisrepo.New(rdb, logger)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "search", cfg.Search.RateLimit, cfg.Search.RateWindow)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	deps := service.Deps{
		VenueProvider: api,
		OrderProvider: api,
		Remote:        api,
		Cache:         cache,
		Limiter:       limiter,
		Hub:           a.hub,
		Dedupe:        idempotencyStore,
	}

	if cfg.API.VenueSource == config.VenueSourcePostgres {
		pgxPool, err := postgres.New(ctx, postgres.Config{DSN: cfg.Postgres.DSN(), AppName: "barhop"})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pgxPool.Close(); return nil })

		store := postgresrepo.NewStore(pgxPool)
		deps.VenueProvider = store
		deps.OrderProvider = store
	}

	if cfg.Kafka.NotifyTopic != "" {
		notifier := kafkarepo.NewNotificationPublisher(cfg.Kafka.Brokers, cfg.Kafka.NotifyTopic)
		a.closers = append(a.closers, notifier.Close)
		deps.Notifier = notifier
	}

	if cfg.Kafka.OrderStream == config.OrderStreamKafka {
		consumer := kafkarepo.NewOrderUpdatesConsumer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.GroupID, logger)
		a.closers = append(a.closers, consumer.Close)
		a.stream = consumer
	} else {
		a.stream = redisrepo.NewOrderUpdatesPubSub(rdb)
	}

	// Initialize services
	services := service.NewServices(deps, service.Config{
		Venues: venues.Config{VenuesTTL: cfg.Venues.CacheTTL},
	}, logger)

	a.orders = services.Orders

	// Initialize Gin router
	router := httpgin.NewRouter(httpgin.Services{
		Venues: services.Venues,
		Orders: services.Orders,
	}, httpgin.RouterConfig{AdminToken: cfg.Server.AdminToken}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Feed order updates to live sessions
	g.Go(func() error {
		a.logger.Info("order stream started", "source", a.cfg.Kafka.OrderStream)
		err := a.stream.Subscribe(gCtx, a.hub.Dispatch)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("order stream stopped: %w", err)
		}
		return nil
	})

	// Publish ready notifications off the stream goroutine
	g.Go(func() error {
		return a.orders.Run(gCtx)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server", "live_sessions", a.hub.Len())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
