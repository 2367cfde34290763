package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SumedhKolte/ReWear-sub000/internal/service"
	"github.com/SumedhKolte/ReWear-sub000/pkg/health"
	"github.com/SumedhKolte/ReWear-sub000/pkg/middleware"
)

// ContentTypeJSON rejects mutation requests without a JSON content type.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(ct, "application/json") {
			http.Error(w, `{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`, http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(
	searchService *service.SearchService,
	healthHandler *health.Handler,
	corsCfg middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("search"))
	r.Use(middleware.Tracing("search"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Search API endpoints
	searchHandler := NewSearchHandler(searchService, logger)

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/", searchHandler.Search)
		r.Get("/suggest", searchHandler.Suggest)
		r.Get("/trending", searchHandler.Trending)
		r.Get("/popular", searchHandler.Popular)

		// Enumerations change slowly and are browser-cacheable.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(300))
			r.Get("/categories", searchHandler.Categories)
			r.Get("/types", searchHandler.Types)
		})

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/index", searchHandler.IndexItem)
			r.Post("/bulk", searchHandler.BulkIndex)
			r.Post("/reindex", searchHandler.Reindex)
			r.Post("/invalidate/{id}", searchHandler.InvalidateItem)
			r.Delete("/{id}", searchHandler.DeleteItem)
		})
	})

	return r
}
