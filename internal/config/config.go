package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/SumedhKolte/ReWear-sub000/pkg/config"
)

// Config holds all configuration for the search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"SEARCH_HTTP_PORT" envDefault:"8010"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"rewear_items"`

	// Search engine selection (elasticsearch or memory)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	// Redis result cache
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Postgres analytics log
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"rewear"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"rewear_secret"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"rewear"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Listing service URL for reindex fetching
	ListingServiceURL string `env:"LISTING_SERVICE_URL" envDefault:"http://localhost:8080"`

	// Request bounds
	MaxQueryLength  int `env:"MAX_QUERY_LENGTH" envDefault:"200"`
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" envDefault:"20"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE" envDefault:"100"`
	MaxTagFilters   int `env:"MAX_TAG_FILTERS" envDefault:"10"`

	// Cache TTLs
	CacheSearchTTL  time.Duration `env:"CACHE_SEARCH_TTL" envDefault:"5m"`
	CacheSuggestTTL time.Duration `env:"CACHE_SUGGEST_TTL" envDefault:"30m"`
	CacheFacetsTTL  time.Duration `env:"CACHE_FACETS_TTL" envDefault:"1h"`

	// Per-path deadlines
	SearchTimeout        time.Duration `env:"SEARCH_TIMEOUT" envDefault:"30s"`
	FacetedSearchTimeout time.Duration `env:"FACETED_SEARCH_TIMEOUT" envDefault:"45s"`
	SuggestTimeout       time.Duration `env:"SUGGEST_TIMEOUT" envDefault:"10s"`

	// Analytics
	AnalyticsBufferSize int `env:"ANALYTICS_BUFFER_SIZE" envDefault:"1024"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SearchEngine != "elasticsearch" && c.SearchEngine != "memory" {
		return fmt.Errorf("invalid search engine %q, must be elasticsearch or memory", c.SearchEngine)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("MAX_PAGE_SIZE (%d) must not be below DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.AnalyticsBufferSize < 1 {
		return fmt.Errorf("ANALYTICS_BUFFER_SIZE must be positive, got %d", c.AnalyticsBufferSize)
	}
	return nil
}
