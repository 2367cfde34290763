package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/SumedhKolte/ReWear-sub000/internal/cache"
	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 20

	// minSuggestRunes is the shortest query that triggers a lookup.
	// Anything shorter returns an empty result, not an error.
	minSuggestRunes = 2
)

// Suggest returns fuzzy suggestion candidates for a partial query, merged
// across the title, category, and type sources and served cache-aside.
func (s *SearchService) Suggest(ctx context.Context, req *domain.SuggestionRequest) (*domain.SuggestionResult, error) {
	req.Query = strings.TrimSpace(req.Query)
	if utf8.RuneCountInString(req.Query) < minSuggestRunes {
		return &domain.SuggestionResult{Suggestions: []domain.Suggestion{}}, nil
	}

	if req.Limit <= 0 {
		req.Limit = defaultSuggestLimit
	}
	if req.Limit > maxSuggestLimit {
		req.Limit = maxSuggestLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Suggest)
	defer cancel()

	key := cache.SuggestKey(req)
	result, _, err := cache.GetOrCompute(ctx, s.cache, key, s.cache.TTL().Suggest,
		func(ctx context.Context) (*domain.SuggestionResult, error) {
			candidates, err := s.engine.Suggest(ctx, req)
			if err != nil {
				return nil, err
			}
			return &domain.SuggestionResult{
				Suggestions: mergeSuggestions(candidates, req.Limit),
			}, nil
		})
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	return result, nil
}

// mergeSuggestions deduplicates candidates by lowercased text keeping the
// best score, caps the title source so category and type suggestions are
// never crowded out, and returns the top entries ordered by score.
func mergeSuggestions(candidates []domain.Suggestion, limit int) []domain.Suggestion {
	best := make(map[string]domain.Suggestion, len(candidates))
	for _, c := range candidates {
		key := strings.ToLower(c.Text)
		if cur, ok := best[key]; !ok || c.Score > cur.Score {
			best[key] = c
		}
	}

	merged := make([]domain.Suggestion, 0, len(best))
	othersPresent := false
	for _, c := range best {
		merged = append(merged, c)
		if c.Source != domain.SuggestionSourceTitle {
			othersPresent = true
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Text < merged[j].Text
	})

	titleCap := limit
	if othersPresent {
		titleCap = limit - 2
		if titleCap < 1 {
			titleCap = 1
		}
	}

	out := make([]domain.Suggestion, 0, limit)
	titles := 0
	for _, c := range merged {
		if len(out) == limit {
			break
		}
		if c.Source == domain.SuggestionSourceTitle {
			if titles == titleCap {
				continue
			}
			titles++
		}
		out = append(out, c)
	}

	return out
}
