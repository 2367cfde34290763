package engine

import (
	"context"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

// SearchEngine defines the interface for indexing and querying catalog items.
// Implementations may use Elasticsearch or in-memory storage.
type SearchEngine interface {
	// Index adds or updates a single item in the search index.
	Index(ctx context.Context, item *domain.Item) error

	// Delete removes an item from the search index by its ID.
	Delete(ctx context.Context, id string) error

	// BulkIndex adds or updates multiple items in the search index.
	BulkIndex(ctx context.Context, items []domain.Item) error

	// Search executes a compiled search request: text match, filter
	// conjunction, sort, pagination, and optional facets/highlighting.
	Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error)

	// Suggest returns fuzzy-match candidates from the title, category, and
	// type fields of available items. Candidates may repeat across sources;
	// merging and deduplication happen in the service layer.
	Suggest(ctx context.Context, req *domain.SuggestionRequest) ([]domain.Suggestion, error)

	// FieldCounts returns distinct value counts for the given field over
	// available items, ordered by count descending.
	FieldCounts(ctx context.Context, field string) ([]domain.FieldCount, error)
}
