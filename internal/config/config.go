package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Redis        RedisConfig
	RabbitMQ     RabbitMQConfig
	RateLimit    RateLimitConfig
	Applications ApplicationsConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout      time.Duration
	PoolMaxConns        int32
	PoolMinConns        int32
	PoolMaxConnLifetime time.Duration
	PoolMaxConnIdleTime time.Duration

	RunMigrations bool
}

// JWTConfig verifies access tokens minted by the upstream identity service.
type JWTConfig struct {
	AccessSecret    string
	Issuer          string
	AccessExpiresIn time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// RabbitMQConfig is optional; an empty URL disables event publishing to the broker.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type ApplicationsConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	SubmitLockTTL   time.Duration
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optInt := func(key string, def int) int {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optFloat := func(key string, def float64) float64 {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optBool := func(key string, def bool) bool {
		raw := opt(key)
		if raw == "" {
			return def
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:              req("DB_HOST"),
		DBPort:              opt("DB_PORT"),
		DBName:              req("DB_NAME"),
		DBUser:              req("DB_USER"),
		DBPassword:          opt("DB_PASSWORD"),
		DBSSLMode:           opt("DB_SSL_MODE"),
		ConnectTimeout:      optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:        int32(optInt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:        int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime: optDuration("DB_POOL_MAX_CONN_LIFETIME", time.Hour),
		PoolMaxConnIdleTime: optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 30*time.Minute),
		RunMigrations:       optBool("DB_RUN_MIGRATIONS", true),
	}
	if cfg.Database.DBPort == "" {
		cfg.Database.DBPort = "5432"
	}
	if cfg.Database.DBSSLMode == "" {
		cfg.Database.DBSSLMode = "disable"
	}

	cfg.JWT = JWTConfig{
		AccessSecret:    req("JWT_ACCESS_SECRET"),
		Issuer:          opt("JWT_ISSUER"),
		AccessExpiresIn: optDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: opt("REDIS_PASSWORD"),
		DB:       optInt("REDIS_DB", 0),
		TTL:      optDuration("REDIS_TTL", 10*time.Minute),
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == "" {
		cfg.Redis.Port = "6379"
	}

	cfg.RabbitMQ = RabbitMQConfig{
		URL:      opt("RABBITMQ_URL"),
		Exchange: opt("RABBITMQ_EXCHANGE"),
	}
	if cfg.RabbitMQ.Exchange == "" {
		cfg.RabbitMQ.Exchange = "application_events"
	}

	cfg.RateLimit = RateLimitConfig{
		RequestsPerSecond: optFloat("RATE_LIMIT_RPS", 5),
		Burst:             optInt("RATE_LIMIT_BURST", 10),
	}

	cfg.Applications = ApplicationsConfig{
		DefaultPageSize: optInt("APPLICATIONS_DEFAULT_PAGE_SIZE", 15),
		MaxPageSize:     optInt("APPLICATIONS_MAX_PAGE_SIZE", 50),
		SubmitLockTTL:   optDuration("APPLICATIONS_SUBMIT_LOCK_TTL", 10*time.Second),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}

	if path := opt("CONFIG_FILE"); path != "" {
		if err := Overlay(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("config overlay %s: %w", path, err)
		}
	}

	return cfg, nil
}
