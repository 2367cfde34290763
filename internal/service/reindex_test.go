package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	"github.com/SumedhKolte/ReWear-sub000/pkg/httpclient"
)

// fakeListingResponse is the paginated envelope the fake listing service
// returns.
type fakeListingResponse struct {
	Data       []domain.Item `json:"data"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

func newReindexService(t *testing.T, listingURL string) *SearchService {
	t.Helper()
	client := httpclient.New(httpclient.DefaultConfig())
	return newTestService(t, WithListingClient(client, listingURL))
}

func TestReindex_IndexesItemsFromListingService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := fakeListingResponse{
			Data: []domain.Item{
				{ID: "item-1", Title: "Reindexed Jacket", Category: "jackets", Status: domain.StatusAvailable},
				{ID: "item-2", Title: "Reindexed Dress", Category: "dresses", Status: domain.StatusAvailable},
			},
			TotalCount: 2,
			Page:       1,
			TotalPages: 1,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	svc := newReindexService(t, srv.URL)

	require.NoError(t, svc.Reindex(context.Background()))

	result, err := svc.Search(context.Background(), &domain.SearchRequest{Query: "reindexed"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestReindex_HandlesMultiplePages(t *testing.T) {
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++

		var resp fakeListingResponse
		switch r.URL.Query().Get("page") {
		case "1", "":
			resp = fakeListingResponse{
				Data:       []domain.Item{{ID: "p1", Title: "Page One Item", Status: domain.StatusAvailable}},
				TotalCount: 2, Page: 1, TotalPages: 2,
			}
		case "2":
			resp = fakeListingResponse{
				Data:       []domain.Item{{ID: "p2", Title: "Page Two Item", Status: domain.StatusAvailable}},
				TotalCount: 2, Page: 2, TotalPages: 2,
			}
		default:
			resp = fakeListingResponse{TotalCount: 2, Page: 3, TotalPages: 2}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	svc := newReindexService(t, srv.URL)

	require.NoError(t, svc.Reindex(context.Background()))
	assert.Equal(t, 2, callCount, "should have fetched exactly 2 pages")

	result, err := svc.Search(context.Background(), &domain.SearchRequest{Query: "item"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestReindex_PropagatesListingErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newReindexService(t, srv.URL)

	err := svc.Reindex(context.Background())
	assert.Error(t, err)
}

func TestReindex_RequiresListingURL(t *testing.T) {
	svc := newTestService(t)

	err := svc.Reindex(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestReindex_RefreshesCachedResults(t *testing.T) {
	items := []domain.Item{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := fakeListingResponse{Data: items, TotalCount: len(items), Page: 1, TotalPages: 1}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	svc := newReindexService(t, srv.URL)

	// Prime an empty cached result.
	first, err := svc.Search(context.Background(), &domain.SearchRequest{Query: "fresh"}, "")
	require.NoError(t, err)
	require.Equal(t, 0, first.Total)

	items = []domain.Item{{ID: "f1", Title: "Fresh Jacket", Status: domain.StatusAvailable}}
	require.NoError(t, svc.Reindex(context.Background()))

	second, err := svc.Search(context.Background(), &domain.SearchRequest{Query: "fresh"}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Total)
}
