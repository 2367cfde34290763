package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SumedhKolte/ReWear-sub000/internal/cache"
	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	apperrors "github.com/SumedhKolte/ReWear-sub000/pkg/errors"
	"github.com/SumedhKolte/ReWear-sub000/pkg/httpclient"
	"github.com/SumedhKolte/ReWear-sub000/pkg/pagination"
)

// reindexPageSize is the page size used when pulling the catalog from the
// listing service during a full reindex.
const reindexPageSize = 100

// IndexItem adds or updates one item in the search index and invalidates
// the affected cache entries.
func (s *SearchService) IndexItem(ctx context.Context, item *domain.Item) error {
	if item.ID == "" {
		return apperrors.InvalidRequest("item id is required")
	}
	if item.Title == "" {
		return apperrors.InvalidRequest("item title is required")
	}

	now := time.Now().UTC()
	if item.Status == "" {
		item.Status = domain.StatusAvailable
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if item.Images == nil {
		item.Images = []string{}
	}

	if err := s.engine.Index(ctx, item); err != nil {
		return fmt.Errorf("index item: %w", err)
	}

	s.cache.InvalidateItem(ctx, item.ID)

	s.logger.InfoContext(ctx, "item indexed",
		slog.String("item_id", item.ID),
		slog.String("title", item.Title),
	)

	return nil
}

// DeleteItem removes an item from the search index and invalidates the
// affected cache entries.
func (s *SearchService) DeleteItem(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidRequest("item id is required")
	}

	if err := s.engine.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	s.cache.InvalidateItem(ctx, id)

	s.logger.InfoContext(ctx, "item deleted from index",
		slog.String("item_id", id),
	)

	return nil
}

// BulkIndex adds or updates multiple items in one engine round trip. Items
// without an ID are skipped. The result cache namespaces are purged once.
func (s *SearchService) BulkIndex(ctx context.Context, items []domain.Item) error {
	now := time.Now().UTC()
	valid := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if item.ID == "" || item.Title == "" {
			continue
		}
		if item.Status == "" {
			item.Status = domain.StatusAvailable
		}
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = now
		}
		if item.Tags == nil {
			item.Tags = []string{}
		}
		if item.Images == nil {
			item.Images = []string{}
		}
		valid = append(valid, item)
	}

	if len(valid) == 0 {
		return nil
	}

	if err := s.engine.BulkIndex(ctx, valid); err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}

	s.cache.PurgeNamespaces(ctx, cache.NamespaceSearch, cache.NamespaceSuggest, cache.NamespaceFacets)

	s.logger.InfoContext(ctx, "bulk index completed",
		slog.Int("count", len(valid)),
	)

	return nil
}

// InvalidateItem purges all cache entries an item mutation can affect. It
// is the explicit invalidation hook for callers that mutate the catalog
// outside the index endpoints.
func (s *SearchService) InvalidateItem(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidRequest("item id is required")
	}
	s.cache.InvalidateItem(ctx, id)
	return nil
}

// Reindex rebuilds the index from the listing service, pulling items page
// by page and bulk-indexing each page. It is safe to run against a live
// index: indexing is an upsert, so existing documents are overwritten in
// place.
func (s *SearchService) Reindex(ctx context.Context) error {
	if s.listing == nil || s.listingURL == "" {
		return apperrors.InvalidRequest("reindex is not configured: listing service URL missing")
	}

	indexed := 0
	for page := 1; ; page++ {
		items, totalPages, err := s.fetchListingPage(ctx, page)
		if err != nil {
			return fmt.Errorf("reindex: %w", err)
		}
		if len(items) == 0 {
			break
		}

		if err := s.engine.BulkIndex(ctx, items); err != nil {
			return fmt.Errorf("reindex: bulk index page %d: %w", page, err)
		}
		indexed += len(items)

		if page >= totalPages {
			break
		}
	}

	s.cache.PurgeNamespaces(ctx, cache.NamespaceSearch, cache.NamespaceSuggest, cache.NamespaceFacets)

	s.logger.InfoContext(ctx, "reindex completed",
		slog.Int("items", indexed),
	)

	return nil
}

func (s *SearchService) fetchListingPage(ctx context.Context, page int) ([]domain.Item, int, error) {
	u, err := url.Parse(s.listingURL + "/api/v1/items")
	if err != nil {
		return nil, 0, fmt.Errorf("parse listing URL: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(reindexPageSize))
	u.RawQuery = q.Encode()

	resp, err := s.listing.Get(ctx, u.String())
	if err != nil {
		return nil, 0, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, httpclient.ParseResponseError(resp, "listing")
	}

	// The listing service returns the shared paginated envelope.
	var envelope pagination.Result[domain.Item]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, 0, fmt.Errorf("decode page %d: %w", page, err)
	}

	return envelope.Data, envelope.TotalPages, nil
}
