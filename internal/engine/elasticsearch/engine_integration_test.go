package elasticsearch_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	esengine "github.com/SumedhKolte/ReWear-sub000/internal/engine/elasticsearch"
)

// testLogger returns a discard logger suitable for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine creates an Elasticsearch engine for integration tests.
// It skips the test if ELASTICSEARCH_URL is not set.
func newTestEngine(t *testing.T) *esengine.Engine {
	t.Helper()

	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		t.Skip("ELASTICSEARCH_URL not set, skipping Elasticsearch integration tests")
	}

	// Use a unique test index per test run to avoid data conflicts.
	indexName := fmt.Sprintf("test_rewear_items_%d", time.Now().UnixNano())

	eng, err := esengine.New(esURL, indexName, testLogger())
	require.NoError(t, err, "failed to create Elasticsearch engine")

	// Cleanup: delete the test index when the test completes.
	t.Cleanup(func() {
		_ = eng.DeleteIndex(context.Background())
	})

	return eng
}

func newTestItem(title, description string) domain.Item {
	now := time.Now().UTC()
	return domain.Item{
		ID:          uuid.New().String(),
		UploaderID:  "user-1",
		Title:       title,
		Description: description,
		Category:    "jackets",
		Type:        "outerwear",
		Size:        "M",
		Condition:   "good",
		Tags:        []string{"test"},
		Images:      []string{"https://example.com/image.jpg"},
		Status:      domain.StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestES_Ping(t *testing.T) {
	eng := newTestEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := eng.Ping(ctx)
	assert.NoError(t, err)
}

func TestES_IndexAndSearch(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	it := newTestItem("Vintage Denim Jacket", "Classic blue denim with brass buttons")
	require.NoError(t, eng.Index(ctx, &it))

	result, err := eng.Search(ctx, &domain.SearchRequest{
		Query:    "denim",
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, it.ID, result.Items[0].ID)
}

func TestES_IndexUpdatesExisting(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	it := newTestItem("Original Title", "Original description")
	require.NoError(t, eng.Index(ctx, &it))

	it.Title = "Updated Title"
	it.Size = "L"
	require.NoError(t, eng.Index(ctx, &it))

	result, err := eng.Search(ctx, &domain.SearchRequest{
		Query:    "updated title",
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, "L", result.Items[0].Size)
}

func TestES_Delete(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	it := newTestItem("Deletable Coat", "Will be deleted")
	require.NoError(t, eng.Index(ctx, &it))

	result, err := eng.Search(ctx, &domain.SearchRequest{Query: "deletable", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)

	require.NoError(t, eng.Delete(ctx, it.ID))

	result, err = eng.Search(ctx, &domain.SearchRequest{Query: "deletable", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestES_DeleteNonExistent(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	err := eng.Delete(ctx, "non-existent-id")
	assert.NoError(t, err)
}

func TestES_BulkIndex(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	items := []domain.Item{
		newTestItem("Bulk Item Alpha", "First bulk item"),
		newTestItem("Bulk Item Beta", "Second bulk item"),
		newTestItem("Bulk Item Gamma", "Third bulk item"),
	}

	require.NoError(t, eng.BulkIndex(ctx, items))

	result, err := eng.Search(ctx, &domain.SearchRequest{
		Query:    "bulk item",
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
}

func TestES_BulkIndex_Empty(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	err := eng.BulkIndex(ctx, []domain.Item{})
	assert.NoError(t, err)
}

func TestES_FilterByCategory(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	a := newTestItem("Wool Jacket", "A warm wool jacket")
	a.Category = "jackets"

	b := newTestItem("Jacket Patch Kit", "Repair patches for jackets")
	b.Category = "accessories"

	require.NoError(t, eng.BulkIndex(ctx, []domain.Item{a, b}))

	result, err := eng.Search(ctx, &domain.SearchRequest{
		Query:    "jacket",
		Filters:  domain.FilterSet{Category: "jackets"},
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, a.ID, result.Items[0].ID)
}

func TestES_FilterByTags(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	a := newTestItem("Summer Dress", "Light floral dress")
	a.Tags = []string{"floral", "summer"}

	b := newTestItem("Summer Shirt", "Plain linen shirt")
	b.Tags = []string{"summer"}

	require.NoError(t, eng.BulkIndex(ctx, []domain.Item{a, b}))

	result, err := eng.Search(ctx, &domain.SearchRequest{
		Query:    "summer",
		Filters:  domain.FilterSet{Tags: []string{"floral", "summer"}},
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, a.ID, result.Items[0].ID)
}

func TestES_SortNewest(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	old := newTestItem("Denim Jacket Classic", "Older listing")
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)

	recent := newTestItem("Denim Jacket Oversized", "Newer listing")

	require.NoError(t, eng.BulkIndex(ctx, []domain.Item{old, recent}))

	result, err := eng.Search(ctx, &domain.SearchRequest{
		Query:    "denim jacket",
		Sort:     domain.SortNewest,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Total)
	assert.Equal(t, recent.ID, result.Items[0].ID)
	assert.Equal(t, old.ID, result.Items[1].ID)
}

func TestES_Suggest(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.BulkIndex(ctx, []domain.Item{
		newTestItem("Denim Jacket", "Blue denim"),
		newTestItem("Leather Jacket", "Black leather"),
	}))

	suggestions, err := eng.Suggest(ctx, &domain.SuggestionRequest{
		Query: "jack",
		Limit: 10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, suggestions)
}

func TestES_FieldCounts(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	a := newTestItem("Denim Jacket", "Blue denim")
	a.Category = "jackets"
	b := newTestItem("Floral Dress", "Summer dress")
	b.Category = "dresses"

	require.NoError(t, eng.BulkIndex(ctx, []domain.Item{a, b}))

	counts, err := eng.FieldCounts(ctx, "category")
	require.NoError(t, err)
	assert.Len(t, counts, 2)
}
