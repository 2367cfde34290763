package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SumedhKolte/ReWear-sub000/internal/cache"
	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	"github.com/SumedhKolte/ReWear-sub000/internal/query"
	apperrors "github.com/SumedhKolte/ReWear-sub000/pkg/errors"
)

const (
	defaultTrendLimit = 10
	maxTrendLimit     = 50
)

// Trending returns the most searched queries within the sliding window.
// Valid windows are 1h, 24h, 7d, and 30d; an empty window means 24h.
func (s *SearchService) Trending(ctx context.Context, limit int, window string) ([]domain.TrendingQuery, error) {
	if s.trends == nil {
		return []domain.TrendingQuery{}, nil
	}

	duration, err := resolveWindow(window)
	if err != nil {
		return nil, err
	}
	limit = clampTrendLimit(limit)

	trending, err := s.trends.Trending(ctx, limit, duration)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}
	if trending == nil {
		trending = []domain.TrendingQuery{}
	}
	return trending, nil
}

// Popular returns queries ranked by frequency and client reach within the
// window, optionally scoped to searches filtered on a category.
func (s *SearchService) Popular(ctx context.Context, limit int, window, category string) ([]domain.PopularQuery, error) {
	if s.trends == nil {
		return []domain.PopularQuery{}, nil
	}

	duration, err := resolveWindow(window)
	if err != nil {
		return nil, err
	}
	limit = clampTrendLimit(limit)

	popular, err := s.trends.Popular(ctx, limit, duration, category)
	if err != nil {
		return nil, fmt.Errorf("popular: %w", err)
	}
	if popular == nil {
		popular = []domain.PopularQuery{}
	}
	return popular, nil
}

// Categories enumerates the distinct categories of available items with
// their item counts, cached hour-scale.
func (s *SearchService) Categories(ctx context.Context) ([]domain.FieldCount, error) {
	return s.fieldCounts(ctx, query.FieldCategory)
}

// Types enumerates the distinct item types of available items.
func (s *SearchService) Types(ctx context.Context) ([]domain.FieldCount, error) {
	return s.fieldCounts(ctx, query.FieldType)
}

func (s *SearchService) fieldCounts(ctx context.Context, field string) ([]domain.FieldCount, error) {
	key := cache.FieldCountsKey(field)
	counts, _, err := cache.GetOrCompute(ctx, s.cache, key, s.cache.TTL().Facets,
		func(ctx context.Context) ([]domain.FieldCount, error) {
			return s.engine.FieldCounts(ctx, field)
		})
	if err != nil {
		return nil, fmt.Errorf("field counts %s: %w", field, err)
	}
	if counts == nil {
		counts = []domain.FieldCount{}
	}
	return counts, nil
}

func resolveWindow(window string) (time.Duration, error) {
	if window == "" {
		window = domain.WindowDay
	}
	duration, ok := domain.WindowDuration(window)
	if !ok {
		return 0, apperrors.InvalidRequest(fmt.Sprintf("invalid window %q, valid options: %s, %s, %s, %s",
			window, domain.WindowHour, domain.WindowDay, domain.WindowWeek, domain.WindowMonth))
	}
	return duration, nil
}

func clampTrendLimit(limit int) int {
	if limit <= 0 {
		return defaultTrendLimit
	}
	if limit > maxTrendLimit {
		return maxTrendLimit
	}
	return limit
}
