package domain

import (
	"time"
)

// Item statuses. Any other value in the index is a data-integrity fault
// owned by the listing service, not by search.
const (
	StatusAvailable = "available"
	StatusSwapped   = "swapped"
	StatusPending   = "pending"
)

// Item represents a catalog listing document in the search index.
// Items are owned by the listing service; search only reads them.
type Item struct {
	ID          string    `json:"id"`
	UploaderID  string    `json:"uploader_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Size        string    `json:"size"`
	Condition   string    `json:"condition"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Sort options for search results.
const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortTitle     = "title"
	SortCategory  = "category"
)

// ValidSortOptions returns the list of valid sort options.
func ValidSortOptions() []string {
	return []string{SortRelevance, SortNewest, SortOldest, SortTitle, SortCategory}
}

// IsValidSort checks whether the given sort string is a valid sort option.
func IsValidSort(sort string) bool {
	for _, s := range ValidSortOptions() {
		if s == sort {
			return true
		}
	}
	return false
}

// FilterSet holds the optional structured filters of a search request.
// All fields are independently combinable and ANDed together; an empty
// FilterSet matches every item.
type FilterSet struct {
	Category   string     `json:"category,omitempty"`
	Type       string     `json:"type,omitempty"`
	Condition  string     `json:"condition,omitempty"`
	Status     string     `json:"status,omitempty"`
	UploaderID string     `json:"uploader_id,omitempty"`
	Size       string     `json:"size,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
}

// IsEmpty reports whether no filter field is set.
func (f FilterSet) IsEmpty() bool {
	return f.Category == "" && f.Type == "" && f.Condition == "" &&
		f.Status == "" && f.UploaderID == "" && f.Size == "" &&
		len(f.Tags) == 0 && f.DateFrom == nil && f.DateTo == nil
}

// SearchOptions toggles optional parts of a search response.
type SearchOptions struct {
	IncludeFacets    bool `json:"include_facets"`
	IncludeHighlight bool `json:"include_highlight"`
}

// SearchRequest holds all parameters for a search call. It is constructed
// once per request and never mutated afterwards.
type SearchRequest struct {
	Query    string        `json:"query"`
	Filters  FilterSet     `json:"filters"`
	Sort     string        `json:"sort"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Options  SearchOptions `json:"options"`
}

// ItemSummary is the subset of item fields returned in search results,
// together with the relevance score and an optional highlight snippet.
type ItemSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Type      string    `json:"type"`
	Size      string    `json:"size"`
	Condition string    `json:"condition"`
	Status    string    `json:"status"`
	Images    []string  `json:"images"`
	Score     float64   `json:"score"`
	Highlight string    `json:"highlight,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FacetValue is a single value/count pair within a facet.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SearchResult holds the paginated search response. Facets, when requested,
// are computed over the full matched set before pagination.
type SearchResult struct {
	Items    []ItemSummary           `json:"items"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
	Facets   map[string][]FacetValue `json:"facets,omitempty"`
	TookMs   int64                   `json:"took_ms"`
}

// Suggestion sources.
const (
	SuggestionSourceTitle    = "title"
	SuggestionSourceCategory = "category"
	SuggestionSourceType     = "type"
)

// Suggestion is a single fuzzy-match candidate for a partial query.
type Suggestion struct {
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// SuggestionRequest holds parameters for a suggestion lookup.
type SuggestionRequest struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit"`
}

// SuggestionResult is the ordered, deduplicated suggestion list.
type SuggestionResult struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// FieldCount is a name/count pair, used by the category and type
// enumeration endpoints.
type FieldCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AnalyticsRecord captures one executed search for trend computation.
// Records are written fire-and-forget; losing them is acceptable.
type AnalyticsRecord struct {
	Query       string    `json:"query"`
	Filters     FilterSet `json:"filters"`
	ResultCount int       `json:"result_count"`
	TookMs      int64     `json:"took_ms"`
	ClientID    string    `json:"client_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TrendingQuery is one entry of the trending-queries ranking.
type TrendingQuery struct {
	Query      string    `json:"query"`
	Count      int       `json:"count"`
	AvgResults float64   `json:"avg_results"`
	LastSeen   time.Time `json:"last_seen"`
}

// PopularQuery is one entry of the popular-queries ranking.
type PopularQuery struct {
	Query         string  `json:"query"`
	Frequency     int     `json:"frequency"`
	AvgResults    float64 `json:"avg_results"`
	UniqueClients int     `json:"unique_clients"`
}

// Analytics windows accepted by the trending and popular endpoints.
const (
	WindowHour  = "1h"
	WindowDay   = "24h"
	WindowWeek  = "7d"
	WindowMonth = "30d"
)

// WindowDuration maps a window name to its duration. The second return
// value is false for unknown windows.
func WindowDuration(window string) (time.Duration, bool) {
	switch window {
	case WindowHour:
		return time.Hour, true
	case WindowDay:
		return 24 * time.Hour, true
	case WindowWeek:
		return 7 * 24 * time.Hour, true
	case WindowMonth:
		return 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
