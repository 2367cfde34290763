package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/SumedhKolte/ReWear-sub000/internal/analytics"
	"github.com/SumedhKolte/ReWear-sub000/internal/cache"
	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	"github.com/SumedhKolte/ReWear-sub000/internal/engine"
	"github.com/SumedhKolte/ReWear-sub000/pkg/httpclient"
)

// TrendStore aggregates the analytics log. *analytics.Store satisfies it.
type TrendStore interface {
	Trending(ctx context.Context, limit int, window time.Duration) ([]domain.TrendingQuery, error)
	Popular(ctx context.Context, limit int, window time.Duration, category string) ([]domain.PopularQuery, error)
}

// Recorder enqueues analytics records. *analytics.Recorder satisfies it.
type Recorder interface {
	Record(rec domain.AnalyticsRecord)
}

// Limits holds the request validation bounds applied before any engine call.
type Limits struct {
	MaxQueryLength  int
	DefaultPageSize int
	MaxPageSize     int
	MaxTagFilters   int
}

// DefaultLimits returns the standard request bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxQueryLength:  200,
		DefaultPageSize: 20,
		MaxPageSize:     100,
		MaxTagFilters:   10,
	}
}

// Timeouts holds the per-path deadlines applied in the service layer so
// in-flight engine calls abort when a path budget expires.
type Timeouts struct {
	Search        time.Duration
	FacetedSearch time.Duration
	Suggest       time.Duration
}

// DefaultTimeouts returns the standard per-path deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Search:        30 * time.Second,
		FacetedSearch: 45 * time.Second,
		Suggest:       10 * time.Second,
	}
}

// SearchService implements the business logic for search operations: request
// validation, cache-aside reads, engine orchestration, analytics recording,
// and index maintenance (including full reindex from the listing service).
type SearchService struct {
	engine     engine.SearchEngine
	cache      *cache.Cache
	trends     TrendStore
	recorder   Recorder
	listing    *httpclient.Client
	listingURL string
	limits     Limits
	timeouts   Timeouts
	logger     *slog.Logger
}

// Option configures optional service collaborators.
type Option func(*SearchService)

// WithAnalytics wires the trend store and the fire-and-forget recorder.
func WithAnalytics(trends TrendStore, recorder Recorder) Option {
	return func(s *SearchService) {
		s.trends = trends
		s.recorder = recorder
	}
}

// WithListingClient wires the HTTP client and base URL used by Reindex to
// pull the full catalog from the listing service.
func WithListingClient(client *httpclient.Client, baseURL string) Option {
	return func(s *SearchService) {
		s.listing = client
		s.listingURL = baseURL
	}
}

// WithLimits overrides the default request bounds.
func WithLimits(l Limits) Option {
	return func(s *SearchService) { s.limits = l }
}

// WithTimeouts overrides the default per-path deadlines.
func WithTimeouts(t Timeouts) Option {
	return func(s *SearchService) { s.timeouts = t }
}

// NewSearchService creates a new search service.
func NewSearchService(eng engine.SearchEngine, c *cache.Cache, logger *slog.Logger, opts ...Option) *SearchService {
	s := &SearchService{
		engine:   eng,
		cache:    c,
		limits:   DefaultLimits(),
		timeouts: DefaultTimeouts(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record hands one analytics record to the recorder, if one is wired.
func (s *SearchService) record(rec domain.AnalyticsRecord) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(rec)
}

var _ Recorder = (*analytics.Recorder)(nil)
var _ TrendStore = (*analytics.Store)(nil)
