package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable this service reads.
	EnvPrefix = "SHOPFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	Catalog CatalogConfig
	Redis   RedisConfig
	Session SessionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Catalog.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPFRONT_APP_ENV" default:"dev"`
	Port         string `envconfig:"SHOPFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// CatalogConfig points at the external product catalog REST API.
type CatalogConfig struct {
	BaseURL        string        `envconfig:"SHOPFRONT_CATALOG_BASE_URL" default:"https://api.escuelajs.co/api/v1"`
	Timeout        time.Duration `envconfig:"SHOPFRONT_CATALOG_TIMEOUT" default:"10s"`
	PageSize       int           `envconfig:"SHOPFRONT_CATALOG_PAGE_SIZE" default:"20"`
	SearchPageSize int           `envconfig:"SHOPFRONT_CATALOG_SEARCH_PAGE_SIZE" default:"50"`
}

func (c CatalogConfig) validate() error {
	trimmed := strings.TrimSpace(c.BaseURL)
	if trimmed == "" {
		return fmt.Errorf("catalog base url is required")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return fmt.Errorf("catalog base url must be http(s): %q", c.BaseURL)
	}
	if c.PageSize <= 0 || c.SearchPageSize <= 0 {
		return fmt.Errorf("catalog page sizes must be positive")
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SessionConfig struct {
	// TokenTTL of zero keeps credentials until logout or a 401 clears them.
	TokenTTL time.Duration `envconfig:"SHOPFRONT_SESSION_TOKEN_TTL" default:"0"`
}
