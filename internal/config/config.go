package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	VenueSourceAPI      = "api"
	VenueSourcePostgres = "postgres"

	OrderStreamRedis = "redis"
	OrderStreamKafka = "kafka"
)

type Config struct {
	Server   ServerConfig
	API      APIConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Venues   VenuesConfig
	Search   SearchConfig
}

type ServerConfig struct {
	Host string
	Port int
	// AdminToken guards /admin. Empty disables the admin routes.
	AdminToken string
}

// APIConfig points at the ordering backend. VenueSource picks where the
// venue list and current orders are read from.
type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	VenueSource string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode,
	)
}

// KafkaConfig.GroupID is unique per process: every instance hosts its own
// sessions and must see every order update, so instances never share a group.
type KafkaConfig struct {
	OrderStream string
	Brokers     []string
	OrderTopic  string
	NotifyTopic string
	GroupID     string
}

type VenuesConfig struct {
	CacheTTL time.Duration
}

type SearchConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host:       envString("SERVER_HOST", "localhost"),
		Port:       serverPort,
		AdminToken: strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),
	}

	apiTimeout, err := envDuration("API_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	apiCfg := APIConfig{
		BaseURL:     strings.TrimRight(envString("API_BASE_URL", "http://localhost:3000"), "/"),
		Timeout:     apiTimeout,
		VenueSource: strings.ToLower(envString("VENUE_SOURCE", VenueSourceAPI)),
	}

	switch apiCfg.VenueSource {
	case VenueSourceAPI, VenueSourcePostgres:
	default:
		return nil, fmt.Errorf("%s: invalid VENUE_SOURCE %q", op, apiCfg.VenueSource)
	}

	var postgresCfg PostgresConfig
	if apiCfg.VenueSource == VenueSourcePostgres {
		postgresCfg, err = postgresFromEnv()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     envString("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	kafkaCfg := KafkaConfig{
		OrderStream: strings.ToLower(envString("ORDER_STREAM", OrderStreamRedis)),
		Brokers:     splitList(envString("KAFKA_BROKERS", "localhost:9092")),
		OrderTopic:  envString("KAFKA_ORDER_TOPIC", "order-updates"),
		NotifyTopic: os.Getenv("KAFKA_NOTIFY_TOPIC"),
		GroupID:     envString("KAFKA_GROUP_ID", "barhop") + "-" + envString("INSTANCE_ID", uuid.NewString()),
	}

	switch kafkaCfg.OrderStream {
	case OrderStreamRedis, OrderStreamKafka:
	default:
		return nil, fmt.Errorf("%s: invalid ORDER_STREAM %q", op, kafkaCfg.OrderStream)
	}

	cacheTTL, err := envDuration("VENUES_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateLimit, err := envInt("SEARCH_RATE_LIMIT", 30)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateWindow, err := envDuration("SEARCH_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		API:      apiCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Kafka:    kafkaCfg,
		Venues:   VenuesConfig{CacheTTL: cacheTTL},
		Search:   SearchConfig{RateLimit: rateLimit, RateWindow: rateWindow},
	}, nil
}

func postgresFromEnv() (PostgresConfig, error) {
	port, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	cfg := PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Name:     os.Getenv("POSTGRES_DB"),
		Host:     envString("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  envString("POSTGRES_SSLMODE", "disable"),
	}

	if cfg.User == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	}

	if cfg.Password == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	}

	if cfg.Name == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
