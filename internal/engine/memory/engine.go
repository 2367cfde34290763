package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	"github.com/SumedhKolte/ReWear-sub000/internal/query"
)

// Engine is an in-memory implementation of the SearchEngine interface.
// It provides substring matching with weighted relevance scoring on title
// and description. Thread-safe via sync.RWMutex.
type Engine struct {
	mu    sync.RWMutex
	items map[string]domain.Item
}

// New creates a new in-memory search engine.
func New() *Engine {
	return &Engine{
		items: make(map[string]domain.Item),
	}
}

// Index adds or updates a single item in the in-memory index.
func (e *Engine) Index(_ context.Context, item *domain.Item) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items[item.ID] = *item
	return nil
}

// Delete removes an item from the in-memory index by its ID.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.items, id)
	return nil
}

// BulkIndex adds or updates multiple items in the in-memory index.
func (e *Engine) BulkIndex(_ context.Context, items []domain.Item) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range items {
		e.items[items[i].ID] = items[i]
	}
	return nil
}

// scored pairs an item with its relevance score during matching.
type scored struct {
	item  domain.Item
	score float64
}

// Search executes a search request against the in-memory index.
func (e *Engine) Search(_ context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	preds := query.Compile(req.Filters)
	queryLower := strings.ToLower(strings.TrimSpace(req.Query))

	matched := make([]scored, 0)
	for _, item := range e.items {
		if !query.Matches(item, preds) {
			continue
		}
		score := relevance(item, queryLower)
		if queryLower != "" && score == 0 {
			continue
		}
		matched = append(matched, scored{item: item, score: score})
	}

	sortMatches(matched, req.Sort)

	total := len(matched)

	var facets map[string][]domain.FacetValue
	if req.Options.IncludeFacets {
		facets = computeFacets(matched)
	}

	// Apply pagination after sort.
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	items := make([]domain.ItemSummary, 0, end-offset)
	for _, m := range matched[offset:end] {
		summary := domain.ItemSummary{
			ID:        m.item.ID,
			Title:     m.item.Title,
			Category:  m.item.Category,
			Type:      m.item.Type,
			Size:      m.item.Size,
			Condition: m.item.Condition,
			Status:    m.item.Status,
			Images:    m.item.Images,
			Score:     m.score,
			CreatedAt: m.item.CreatedAt,
		}
		if req.Options.IncludeHighlight && queryLower != "" {
			summary.Highlight = snippet(m.item, queryLower)
		}
		items = append(items, summary)
	}

	return &domain.SearchResult{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Facets:   facets,
		TookMs:   time.Since(start).Milliseconds(),
	}, nil
}

// relevance computes a weighted match score in [0, 1]. Title matches weigh
// three times description matches; an empty query scores everything 0.
func relevance(item domain.Item, queryLower string) float64 {
	if queryLower == "" {
		return 0
	}

	const (
		titleWeight    = 3.0
		descWeight     = 1.0
		tagWeight      = 1.0
		categoryWeight = 1.0
	)
	maxWeight := titleWeight + descWeight + tagWeight + categoryWeight

	var score float64
	terms := strings.Fields(queryLower)
	titleLower := strings.ToLower(item.Title)
	descLower := strings.ToLower(item.Description)

	matchRatio := func(haystack string) float64 {
		if haystack == "" {
			return 0
		}
		matchedTerms := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matchedTerms++
			}
		}
		return float64(matchedTerms) / float64(len(terms))
	}

	score += titleWeight * matchRatio(titleLower)
	score += descWeight * matchRatio(descLower)
	score += tagWeight * matchRatio(strings.ToLower(strings.Join(item.Tags, " ")))
	score += categoryWeight * matchRatio(strings.ToLower(item.Category))

	return score / maxWeight
}

// sortMatches orders matched items with the documented tie-breaks. The item
// ID is the final tie-break everywhere so pagination is stable across calls.
func sortMatches(matched []scored, sortBy string) {
	less := func(i, j scored) bool {
		return i.item.ID < j.item.ID
	}

	switch sortBy {
	case domain.SortNewest:
		less = func(i, j scored) bool {
			if !i.item.CreatedAt.Equal(j.item.CreatedAt) {
				return i.item.CreatedAt.After(j.item.CreatedAt)
			}
			return i.item.ID < j.item.ID
		}
	case domain.SortOldest:
		less = func(i, j scored) bool {
			if !i.item.CreatedAt.Equal(j.item.CreatedAt) {
				return i.item.CreatedAt.Before(j.item.CreatedAt)
			}
			return i.item.ID < j.item.ID
		}
	case domain.SortTitle:
		less = func(i, j scored) bool {
			if i.item.Title != j.item.Title {
				return i.item.Title < j.item.Title
			}
			return i.item.ID < j.item.ID
		}
	case domain.SortCategory:
		less = func(i, j scored) bool {
			if i.item.Category != j.item.Category {
				return i.item.Category < j.item.Category
			}
			if i.item.Title != j.item.Title {
				return i.item.Title < j.item.Title
			}
			return i.item.ID < j.item.ID
		}
	default:
		// SortRelevance: score desc, then newest, then ID.
		less = func(i, j scored) bool {
			if i.score != j.score {
				return i.score > j.score
			}
			if !i.item.CreatedAt.Equal(j.item.CreatedAt) {
				return i.item.CreatedAt.After(j.item.CreatedAt)
			}
			return i.item.ID < j.item.ID
		}
	}

	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
}

// computeFacets counts facet values over the full matched set and keeps the
// top 10 per field, count descending with alphabetical tie-break.
func computeFacets(matched []scored) map[string][]domain.FacetValue {
	counts := map[string]map[string]int{
		"category":  {},
		"type":      {},
		"size":      {},
		"condition": {},
	}

	for _, m := range matched {
		add := func(field, value string) {
			if value != "" {
				counts[field][value]++
			}
		}
		add("category", m.item.Category)
		add("type", m.item.Type)
		add("size", m.item.Size)
		add("condition", m.item.Condition)
	}

	facets := make(map[string][]domain.FacetValue, len(counts))
	for field, values := range counts {
		list := make([]domain.FacetValue, 0, len(values))
		for value, count := range values {
			list = append(list, domain.FacetValue{Value: value, Count: count})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			return list[i].Value < list[j].Value
		})
		if len(list) > 10 {
			list = list[:10]
		}
		facets[field] = list
	}
	return facets
}

// snippet builds a bounded highlight fragment around the first query term
// found in the description, falling back to the title.
func snippet(item domain.Item, queryLower string) string {
	const window = 150

	descLower := strings.ToLower(item.Description)
	for _, term := range strings.Fields(queryLower) {
		idx := strings.Index(descLower, term)
		if idx < 0 {
			continue
		}
		start := idx - window/2
		if start < 0 {
			start = 0
		}
		end := start + window
		if end > len(item.Description) {
			end = len(item.Description)
		}
		fragment := strings.TrimSpace(item.Description[start:end])
		if start > 0 {
			fragment = "…" + fragment
		}
		if end < len(item.Description) {
			fragment += "…"
		}
		return fragment
	}

	return item.Title
}

// Suggest returns fuzzy-similarity candidates from title, category, and type
// of available items. Only items at or above the similarity floor surface.
func (e *Engine) Suggest(_ context.Context, req *domain.SuggestionRequest) ([]domain.Suggestion, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	queryLower := strings.ToLower(strings.TrimSpace(req.Query))

	type candidate struct {
		text   string
		source string
	}

	best := make(map[candidate]float64)
	for _, item := range e.items {
		if item.Status != domain.StatusAvailable {
			continue
		}
		if req.Category != "" && !strings.EqualFold(item.Category, req.Category) {
			continue
		}

		consider := func(text, source string) {
			if text == "" {
				return
			}
			score := similarity(queryLower, text)
			if score < minSimilarity {
				return
			}
			key := candidate{text: text, source: source}
			if score > best[key] {
				best[key] = score
			}
		}

		consider(item.Title, domain.SuggestionSourceTitle)
		consider(item.Category, domain.SuggestionSourceCategory)
		consider(item.Type, domain.SuggestionSourceType)
	}

	suggestions := make([]domain.Suggestion, 0, len(best))
	for key, score := range best {
		suggestions = append(suggestions, domain.Suggestion{
			Text:   key.text,
			Score:  score,
			Source: key.source,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Text < suggestions[j].Text
	})

	// Per-source cap mirrors the limit; the service layer merges sources.
	perSource := map[string]int{}
	capped := suggestions[:0]
	for _, s := range suggestions {
		if perSource[s.Source] >= limit {
			continue
		}
		perSource[s.Source]++
		capped = append(capped, s)
	}

	return capped, nil
}

// FieldCounts returns distinct value counts for the given field over
// available items, count descending with alphabetical tie-break.
func (e *Engine) FieldCounts(_ context.Context, field string) ([]domain.FieldCount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	values := map[string]int{}
	for _, item := range e.items {
		if item.Status != domain.StatusAvailable {
			continue
		}
		var v string
		switch field {
		case query.FieldCategory:
			v = item.Category
		case query.FieldType:
			v = item.Type
		case query.FieldSize:
			v = item.Size
		case query.FieldCondition:
			v = item.Condition
		}
		if v != "" {
			values[v]++
		}
	}

	counts := make([]domain.FieldCount, 0, len(values))
	for name, count := range values {
		counts = append(counts, domain.FieldCount{Name: name, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})

	return counts, nil
}
