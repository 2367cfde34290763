package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	"github.com/SumedhKolte/ReWear-sub000/internal/query"
	apperrors "github.com/SumedhKolte/ReWear-sub000/pkg/errors"
)

// Facet fields exposed when include_facets is requested.
var facetFields = []string{"category", "type", "size", "condition"}

// Engine is an Elasticsearch-backed implementation of the SearchEngine interface.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

// esSearchResponse is the structure used to decode Elasticsearch search responses.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		MaxScore float64 `json:"max_score"`
		Hits     []struct {
			Score     float64             `json:"_score"`
			Source    domain.Item         `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key      string `json:"key"`
			DocCount int    `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates a new Elasticsearch engine connected to the given URL.
// It ensures the items index exists, creating it if necessary.
// If indexName is empty, DefaultIndexName is used.
func New(esURL string, indexName string, logger *slog.Logger) (*Engine, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	e := &Engine{
		client:    client,
		indexName: indexName,
		logger:    logger,
	}

	if err := e.ensureIndex(); err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to ensure index: %w", err)
	}

	return e, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// transportErr classifies a client-level error: a deadline that expired
// becomes ErrTimeout, everything else ErrStoreUnavailable. API-level errors
// (res.IsError) are not routed through here.
func transportErr(ctx context.Context, operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s: %w", operation, apperrors.ErrTimeout)
	}
	return fmt.Errorf("%s: %w: %w", operation, apperrors.ErrStoreUnavailable, err)
}

// apiErr classifies an API-level error response. Server-side failures and
// throttling wrap ErrStoreUnavailable so callers see a retryable store
// outage; other statuses indicate a malformed request and stay internal.
func apiErr(operation string, statusCode int, errType, reason string) error {
	detail := fmt.Sprintf("unexpected status %d", statusCode)
	if errType != "" {
		detail = fmt.Sprintf("%s: %s", errType, reason)
	}
	if statusCode >= 500 || statusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w: %s", operation, apperrors.ErrStoreUnavailable, detail)
	}
	return fmt.Errorf("%s: %s", operation, detail)
}

// ensureIndex checks whether the items index exists and creates it if not.
func (e *Engine) ensureIndex() error {
	res, err := e.client.Indices.Exists([]string{e.indexName})
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	// Status 200 means the index exists.
	if res.StatusCode == 200 {
		e.logger.Info("elasticsearch index already exists", "index", e.indexName)
		return nil
	}

	mapping := buildIndexMapping()
	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil {
			return fmt.Errorf("create index: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("create index: unexpected status %s", res.Status())
	}

	e.logger.Info("elasticsearch index created", "index", e.indexName)
	return nil
}

// Index adds or updates a single item in the Elasticsearch index.
func (e *Engine) Index(ctx context.Context, item *domain.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal item: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(item.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return transportErr(ctx, "elasticsearch index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&errResp)
		return apiErr("elasticsearch index", res.StatusCode, errResp.Error.Type, errResp.Error.Reason)
	}

	e.logger.Debug("indexed item", "id", item.ID, "title", item.Title)
	return nil
}

// Delete removes an item from the Elasticsearch index by its ID.
// It does not return an error if the document does not exist (404 is ignored).
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.indexName,
		id,
		e.client.Delete.WithContext(ctx),
		e.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return transportErr(ctx, "elasticsearch delete", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		var errResp esErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&errResp)
		return apiErr("elasticsearch delete", res.StatusCode, errResp.Error.Type, errResp.Error.Reason)
	}

	e.logger.Debug("deleted item", "id", id)
	return nil
}

// BulkIndex adds or updates multiple items using the bulk NDJSON API.
func (e *Engine) BulkIndex(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	var buf bytes.Buffer

	for i := range items {
		action := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": e.indexName,
				"_id":    items[i].ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(items[i]); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return transportErr(ctx, "elasticsearch bulk index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&errResp)
		return apiErr("elasticsearch bulk index", res.StatusCode, errResp.Error.Type, errResp.Error.Reason)
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}

	if bulkResp.Errors {
		var errMsgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				errMsgs = append(errMsgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(errMsgs, "; "))
	}

	e.logger.Info("bulk indexed items", "count", len(items))
	return nil
}

// Search executes a search request against Elasticsearch.
func (e *Engine) Search(ctx context.Context, req *domain.SearchRequest) (*domain.SearchResult, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	esQuery := e.buildSearchQuery(req, page, pageSize)

	data, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, transportErr(ctx, "elasticsearch search", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&errResp)
		return nil, apiErr("elasticsearch search", res.StatusCode, errResp.Error.Type, errResp.Error.Reason)
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	maxScore := esResp.Hits.MaxScore
	items := make([]domain.ItemSummary, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		summary := toSummary(hit.Source)
		// Normalize relevance to (0, 1] relative to the best hit of this
		// result set. Sort-only queries carry no score.
		if maxScore > 0 {
			summary.Score = hit.Score / maxScore
		}
		if req.Options.IncludeHighlight {
			summary.Highlight = joinHighlight(hit.Highlight)
		}
		items = append(items, summary)
	}

	result := &domain.SearchResult{
		Items:    items,
		Total:    esResp.Hits.Total.Value,
		Page:     page,
		PageSize: pageSize,
		TookMs:   int64(esResp.Took),
	}

	if req.Options.IncludeFacets {
		result.Facets = decodeFacets(esResp)
	}

	return result, nil
}

// toSummary projects an indexed item onto the result summary fields.
func toSummary(item domain.Item) domain.ItemSummary {
	return domain.ItemSummary{
		ID:        item.ID,
		Title:     item.Title,
		Category:  item.Category,
		Type:      item.Type,
		Size:      item.Size,
		Condition: item.Condition,
		Status:    item.Status,
		Images:    item.Images,
		CreatedAt: item.CreatedAt,
	}
}

// joinHighlight flattens the per-field highlight fragments into one snippet.
// Description fragments are preferred; title is the fallback.
func joinHighlight(fields map[string][]string) string {
	if frags, ok := fields["description"]; ok && len(frags) > 0 {
		return strings.Join(frags, " … ")
	}
	if frags, ok := fields["title"]; ok && len(frags) > 0 {
		return frags[0]
	}
	return ""
}

// decodeFacets converts terms-aggregation buckets into facet value lists.
func decodeFacets(resp esSearchResponse) map[string][]domain.FacetValue {
	facets := make(map[string][]domain.FacetValue, len(facetFields))
	for _, field := range facetFields {
		agg, ok := resp.Aggregations[field]
		if !ok {
			continue
		}
		values := make([]domain.FacetValue, 0, len(agg.Buckets))
		for _, b := range agg.Buckets {
			values = append(values, domain.FacetValue{Value: b.Key, Count: b.DocCount})
		}
		facets[field] = values
	}
	return facets
}

// buildSearchQuery constructs the Elasticsearch query DSL as a map.
func (e *Engine) buildSearchQuery(req *domain.SearchRequest, page, pageSize int) map[string]interface{} {
	var mustClause interface{}
	if req.Query != "" {
		mustClause = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":         req.Query,
				"fields":        []string{"title^3", "title.autocomplete^2", "description", "tags", "category"},
				"type":          "best_fields",
				"fuzziness":     "AUTO",
				"prefix_length": 1,
			},
		}
	} else {
		mustClause = map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{mustClause},
	}
	if filters := buildFilterClauses(query.Compile(req.Filters)); len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
		"from":             (page - 1) * pageSize,
		"size":             pageSize,
		"track_total_hits": true,
	}

	if sortClause := buildSort(req.Sort); sortClause != nil {
		esQuery["sort"] = sortClause
	}

	if req.Options.IncludeFacets {
		esQuery["aggs"] = buildFacetAggs()
	}

	if req.Options.IncludeHighlight && req.Query != "" {
		esQuery["highlight"] = map[string]interface{}{
			"fields": map[string]interface{}{
				"description": map[string]interface{}{
					"fragment_size":       150,
					"number_of_fragments": 2,
				},
				"title": map[string]interface{}{
					"number_of_fragments": 1,
				},
			},
		}
	}

	return esQuery
}

// buildFilterClauses translates compiled predicates into ES filter clauses.
func buildFilterClauses(preds []query.Predicate) []interface{} {
	var clauses []interface{}
	var createdRange map[string]interface{}

	for _, p := range preds {
		switch p.Op {
		case query.OpEq:
			clauses = append(clauses, map[string]interface{}{
				"term": map[string]interface{}{
					filterField(p.Field): p.Value,
				},
			})
		case query.OpIn:
			clauses = append(clauses, map[string]interface{}{
				"terms": map[string]interface{}{
					filterField(p.Field): p.Value,
				},
			})
		case query.OpGte, query.OpLte:
			if createdRange == nil {
				createdRange = map[string]interface{}{}
			}
			createdRange[string(p.Op)] = p.Value
		}
	}

	if createdRange != nil {
		clauses = append(clauses, map[string]interface{}{
			"range": map[string]interface{}{
				"created_at": createdRange,
			},
		})
	}

	return clauses
}

// filterField maps a predicate field to the ES field used for exact matching.
// Text fields with keyword subfields filter on the subfield.
func filterField(field string) string {
	switch field {
	case query.FieldCategory:
		return "category.keyword"
	case query.FieldType:
		return "type.keyword"
	default:
		return field
	}
}

// buildSort constructs the sort clause with the documented tie-breaks.
func buildSort(sortBy string) []interface{} {
	switch sortBy {
	case domain.SortNewest:
		return []interface{}{
			map[string]interface{}{"created_at": "desc"},
		}
	case domain.SortOldest:
		return []interface{}{
			map[string]interface{}{"created_at": "asc"},
		}
	case domain.SortTitle:
		return []interface{}{
			map[string]interface{}{"title.keyword": "asc"},
		}
	case domain.SortCategory:
		return []interface{}{
			map[string]interface{}{"category.keyword": "asc"},
			map[string]interface{}{"title.keyword": "asc"},
		}
	default:
		// SortRelevance: score first, newest item wins a score tie.
		return []interface{}{
			map[string]interface{}{"_score": "desc"},
			map[string]interface{}{"created_at": "desc"},
		}
	}
}

// buildFacetAggs returns the terms aggregations for the facet fields:
// top 10 values by count, ties broken alphabetically.
func buildFacetAggs() map[string]interface{} {
	aggs := make(map[string]interface{}, len(facetFields))
	for _, field := range facetFields {
		aggs[field] = map[string]interface{}{
			"terms": map[string]interface{}{
				"field": filterField(field),
				"size":  10,
				"order": []interface{}{
					map[string]interface{}{"_count": "desc"},
					map[string]interface{}{"_key": "asc"},
				},
			},
		}
	}
	return aggs
}

// DeleteIndex removes the entire Elasticsearch index.
// It is intended for testing and administrative operations only.
// A 404 response is treated as success (index already absent).
func (e *Engine) DeleteIndex(ctx context.Context) error {
	res, err := e.client.Indices.Delete(
		[]string{e.indexName},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return transportErr(ctx, "elasticsearch delete index", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		var errResp esErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&errResp)
		return apiErr("elasticsearch delete index", res.StatusCode, errResp.Error.Type, errResp.Error.Reason)
	}

	e.logger.Info("elasticsearch index deleted", "index", e.indexName)
	return nil
}
