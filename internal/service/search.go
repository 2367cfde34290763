package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SumedhKolte/ReWear-sub000/internal/cache"
	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	apperrors "github.com/SumedhKolte/ReWear-sub000/pkg/errors"
)

// Search validates and clamps the request, applies the path deadline, and
// serves the result cache-aside. A successful search is handed to the
// analytics recorder without blocking the response.
func (s *SearchService) Search(ctx context.Context, req *domain.SearchRequest, clientID string) (*domain.SearchResult, error) {
	if err := s.normalizeRequest(req); err != nil {
		return nil, err
	}

	deadline := s.timeouts.Search
	if req.Options.IncludeFacets {
		deadline = s.timeouts.FacetedSearch
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	key := cache.SearchKey(req)
	result, hit, err := cache.GetOrCompute(ctx, s.cache, key, s.cache.TTL().Search,
		func(ctx context.Context) (*domain.SearchResult, error) {
			return s.engine.Search(ctx, req)
		})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.record(domain.AnalyticsRecord{
		Query:       strings.TrimSpace(req.Query),
		Filters:     req.Filters,
		ResultCount: result.Total,
		TookMs:      time.Since(start).Milliseconds(),
		ClientID:    clientID,
	})

	s.logger.DebugContext(ctx, "search executed",
		slog.String("query", req.Query),
		slog.Int("total", result.Total),
		slog.Bool("cache_hit", hit),
		slog.Int64("took_ms", result.TookMs),
	)

	return result, nil
}

// normalizeRequest applies defaults and bounds. Out-of-range pagination is
// clamped; malformed query, sort, and filter values are rejected.
func (s *SearchService) normalizeRequest(req *domain.SearchRequest) error {
	if utf8.RuneCountInString(req.Query) > s.limits.MaxQueryLength {
		return apperrors.InvalidRequest(fmt.Sprintf("query exceeds maximum length of %d characters", s.limits.MaxQueryLength))
	}
	if len(req.Filters.Tags) > s.limits.MaxTagFilters {
		return apperrors.InvalidRequest(fmt.Sprintf("at most %d tag filters are allowed", s.limits.MaxTagFilters))
	}
	if req.Filters.DateFrom != nil && req.Filters.DateTo != nil && req.Filters.DateTo.Before(*req.Filters.DateFrom) {
		return apperrors.InvalidRequest("date_to must not be before date_from")
	}

	if req.Sort == "" {
		req.Sort = domain.SortRelevance
	}
	if !domain.IsValidSort(req.Sort) {
		return apperrors.InvalidRequest(fmt.Sprintf("invalid sort %q, valid options: %s",
			req.Sort, strings.Join(domain.ValidSortOptions(), ", ")))
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = s.limits.DefaultPageSize
	}
	if req.PageSize > s.limits.MaxPageSize {
		req.PageSize = s.limits.MaxPageSize
	}

	return nil
}
