package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	"github.com/SumedhKolte/ReWear-sub000/internal/service"
	"github.com/SumedhKolte/ReWear-sub000/pkg/httputil"
	"github.com/SumedhKolte/ReWear-sub000/pkg/validator"
)

// SearchHandler handles HTTP requests for search endpoints.
type SearchHandler struct {
	service *service.SearchService
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// IndexItemRequest is the JSON request body for indexing an item.
type IndexItemRequest struct {
	ID          string    `json:"id" validate:"required"`
	UploaderID  string    `json:"uploader_id"`
	Title       string    `json:"title" validate:"required,min=1"`
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

// BulkIndexRequest is the JSON request body for bulk indexing items.
type BulkIndexRequest struct {
	Items []IndexItemRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

func (r IndexItemRequest) toItem() domain.Item {
	return domain.Item{
		ID:          r.ID,
		UploaderID:  r.UploaderID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Type:        r.Type,
		Size:        r.Size,
		Condition:   r.Condition,
		Tags:        r.Tags,
		Images:      r.Images,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// --- Helpers ---

func writeInvalidParameter(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}

// clientID identifies the caller for analytics. It prefers the gateway
// headers and falls back to the remote address.
func clientID(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseDate accepts both a plain date and a full RFC3339 timestamp.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// --- Handlers ---

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := &domain.SearchRequest{
		Query: strings.TrimSpace(q.Get("q")),
		Sort:  q.Get("sort"),
		Filters: domain.FilterSet{
			Category:   q.Get("category"),
			Type:       q.Get("type"),
			Condition:  q.Get("condition"),
			Status:     q.Get("status"),
			UploaderID: q.Get("uploader_id"),
			Size:       q.Get("size"),
		},
	}

	if v := q.Get("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				req.Filters.Tags = append(req.Filters.Tags, tag)
			}
		}
	}
	if v := q.Get("date_from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			writeInvalidParameter(w, "date_from must be a date (2006-01-02) or RFC3339 timestamp")
			return
		}
		req.Filters.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			writeInvalidParameter(w, "date_to must be a date (2006-01-02) or RFC3339 timestamp")
			return
		}
		req.Filters.DateTo = &t
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			writeInvalidParameter(w, "page must be a number")
			return
		}
		req.Page = page
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			writeInvalidParameter(w, "page_size must be a number")
			return
		}
		req.PageSize = size
	}
	if v := q.Get("facets"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeInvalidParameter(w, "facets must be a boolean")
			return
		}
		req.Options.IncludeFacets = b
	}
	if v := q.Get("highlight"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeInvalidParameter(w, "highlight must be a boolean")
			return
		}
		req.Options.IncludeHighlight = b
	}

	result, err := h.service.Search(r.Context(), req, clientID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Suggest handles GET /api/v1/search/suggest
func (h *SearchHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	req := &domain.SuggestionRequest{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeInvalidParameter(w, "limit must be a number")
			return
		}
		req.Limit = limit
	}

	result, err := h.service.Suggest(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Trending handles GET /api/v1/search/trending
func (h *SearchHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseOptionalInt(w, r, "limit")
	if !ok {
		return
	}

	trending, err := h.service.Trending(r.Context(), limit, r.URL.Query().Get("period"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"trending": trending}})
}

// Popular handles GET /api/v1/search/popular
func (h *SearchHandler) Popular(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseOptionalInt(w, r, "limit")
	if !ok {
		return
	}

	popular, err := h.service.Popular(r.Context(), limit,
		r.URL.Query().Get("timeframe"), r.URL.Query().Get("category"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"popular": popular}})
}

func parseOptionalInt(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeInvalidParameter(w, param+" must be a number")
		return 0, false
	}
	return n, true
}

// Categories handles GET /api/v1/search/categories
func (h *SearchHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"categories": categories}})
}

// Types handles GET /api/v1/search/types
func (h *SearchHandler) Types(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.Types(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"types": types}})
}

// IndexItem handles POST /api/v1/search/index
func (h *SearchHandler) IndexItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req IndexItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item := req.toItem()
	if err := h.service.IndexItem(r.Context(), &item); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": req.ID, "status": "indexed"}})
}

// BulkIndex handles POST /api/v1/search/bulk
func (h *SearchHandler) BulkIndex(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20) // 10MB limit for bulk endpoint

	var req BulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	items := make([]domain.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, it.toItem())
	}

	if err := h.service.BulkIndex(r.Context(), items); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{"indexed": len(items), "status": "ok"}})
}

// DeleteItem handles DELETE /api/v1/search/{id}
func (h *SearchHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "deleted"}})
}

// InvalidateItem handles POST /api/v1/search/invalidate/{id}
func (h *SearchHandler) InvalidateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.InvalidateItem(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id, "status": "invalidated"}})
}

// Reindex handles POST /api/v1/search/reindex
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx := context.Background()
		if err := h.service.Reindex(ctx); err != nil {
			h.logger.ErrorContext(ctx, "background reindex failed", "error", err)
		}
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}
