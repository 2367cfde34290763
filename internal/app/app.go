package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/SumedhKolte/ReWear-sub000/internal/analytics"
	"github.com/SumedhKolte/ReWear-sub000/internal/cache"
	"github.com/SumedhKolte/ReWear-sub000/internal/config"
	"github.com/SumedhKolte/ReWear-sub000/internal/engine"
	esengine "github.com/SumedhKolte/ReWear-sub000/internal/engine/elasticsearch"
	"github.com/SumedhKolte/ReWear-sub000/internal/engine/memory"
	"github.com/SumedhKolte/ReWear-sub000/internal/event"
	handler "github.com/SumedhKolte/ReWear-sub000/internal/handler/http"
	"github.com/SumedhKolte/ReWear-sub000/internal/service"
	"github.com/SumedhKolte/ReWear-sub000/pkg/database"
	"github.com/SumedhKolte/ReWear-sub000/pkg/health"
	"github.com/SumedhKolte/ReWear-sub000/pkg/httpclient"
	pkgkafka "github.com/SumedhKolte/ReWear-sub000/pkg/kafka"
	"github.com/SumedhKolte/ReWear-sub000/pkg/middleware"
	"github.com/SumedhKolte/ReWear-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the search service.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	consumers       []*pkgkafka.Consumer
	recorder        *analytics.Recorder
	pool            *pgxpool.Pool
	redisClient     *redis.Client
	httpServer      *http.Server
	tracingShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Tracing is optional and off by default.
	tracingCfg := tracing.DefaultConfig("search-service")
	tracingCfg.Enabled = cfg.TracingEnabled
	tracingCfg.OTLPEndpoint = cfg.TracingEndpoint
	tracingCfg.Environment = cfg.Environment
	tracingShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Initialize search engine based on configuration.
	var eng engine.SearchEngine
	var esEng *esengine.Engine
	switch cfg.SearchEngine {
	case "elasticsearch":
		esEng, err = esengine.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng
		logger.Info("elasticsearch search engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		eng = memory.New()
		logger.Info("in-memory search engine initialized")
	}

	// Redis result cache. A connection failure is not fatal: the cache
	// layer degrades to pass-through and probes for recovery.
	redisCfg := database.RedisConfig{
		Host: cfg.RedisHost,
		Port: cfg.RedisPort,
		DB:   cfg.RedisDB,
	}
	redisClient, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		logger.Warn("redis unavailable at startup, caching degraded",
			slog.String("addr", redisCfg.Addr()),
			slog.String("error", err.Error()),
		)
		redisClient = redis.NewClient(&redis.Options{Addr: redisCfg.Addr(), DB: cfg.RedisDB})
	}
	ttl := cache.TTLConfig{
		Search:  cfg.CacheSearchTTL,
		Suggest: cfg.CacheSuggestTTL,
		Facets:  cfg.CacheFacetsTTL,
	}
	resultCache := cache.New(redisClient, ttl, logger)

	// Postgres analytics log.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPassword
	pgCfg.DBName = cfg.PostgresDB
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init postgres pool: %w", err)
	}
	if err := analytics.Migrate(ctx, pool, logger); err != nil {
		return nil, fmt.Errorf("run analytics migrations: %w", err)
	}
	database.RegisterPoolMetrics(pool, "search")

	trendStore := analytics.NewStore(pool)
	recorder := analytics.NewRecorder(trendStore, cfg.AnalyticsBufferSize, logger)
	recorder.Start()

	// Listing service client for full reindex.
	listingClient := httpclient.New(httpclient.DefaultConfig())

	// Build the service layer.
	searchService := service.NewSearchService(eng, resultCache, logger,
		service.WithAnalytics(trendStore, recorder),
		service.WithListingClient(listingClient, cfg.ListingServiceURL),
		service.WithLimits(service.Limits{
			MaxQueryLength:  cfg.MaxQueryLength,
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
			MaxTagFilters:   cfg.MaxTagFilters,
		}),
		service.WithTimeouts(service.Timeouts{
			Search:        cfg.SearchTimeout,
			FacetedSearch: cfg.FacetedSearchTimeout,
			Suggest:       cfg.SuggestTimeout,
		}),
	)

	// Initialize Kafka consumers for item lifecycle events.
	eventConsumer := event.NewConsumer(searchService, logger)

	topics := []string{
		event.TopicItemCreated,
		event.TopicItemUpdated,
		event.TopicItemDeleted,
	}

	var consumers []*pkgkafka.Consumer
	for _, topic := range topics {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  "search-service",
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		c := pkgkafka.NewConsumer(consumerCfg, eventConsumer.Handle, logger)
		consumers = append(consumers, c)
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(topics)),
	)

	// Health checks. The engine and analytics store are critical; the
	// cache and event stream only degrade the service when down.
	healthHandler := health.NewHandler()
	if esEng != nil {
		healthHandler.RegisterCritical("elasticsearch", esEng.Ping)
	}
	healthHandler.RegisterCritical("postgres", pool.Ping)
	healthHandler.RegisterNonCritical("redis", resultCache.Ping)
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
	})

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	router := handler.NewRouter(searchService, healthHandler, corsCfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		consumers:       consumers,
		recorder:        recorder,
		pool:            pool,
		redisClient:     redisClient,
		httpServer:      httpServer,
		tracingShutdown: tracingShutdown,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	// Start Kafka consumers in background goroutines.
	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Close Kafka consumers.
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// Drain buffered analytics before closing the pool behind them.
	a.recorder.Stop(5 * time.Second)
	a.pool.Close()

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.tracingShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
