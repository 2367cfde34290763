package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

// esCountsResponse decodes field-count aggregation responses.
type esCountsResponse struct {
	Aggregations struct {
		Values struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int    `json:"doc_count"`
			} `json:"buckets"`
		} `json:"values"`
	} `json:"aggregations"`
}

// FieldCounts returns distinct value counts for the given field over
// available items, ordered by count descending then value ascending.
func (e *Engine) FieldCounts(ctx context.Context, field string) ([]domain.FieldCount, error) {
	esQuery := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"status": domain.StatusAvailable,
			},
		},
		"aggs": map[string]interface{}{
			"values": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": filterField(field),
					"size":  50,
					"order": []interface{}{
						map[string]interface{}{"_count": "desc"},
						map[string]interface{}{"_key": "asc"},
					},
				},
			},
		},
	}

	data, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch field counts: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, transportErr(ctx, "elasticsearch field counts", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&errResp)
		return nil, apiErr("elasticsearch field counts", res.StatusCode, errResp.Error.Type, errResp.Error.Reason)
	}

	var esResp esCountsResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch field counts: decode response: %w", err)
	}

	counts := make([]domain.FieldCount, 0, len(esResp.Aggregations.Values.Buckets))
	for _, b := range esResp.Aggregations.Values.Buckets {
		counts = append(counts, domain.FieldCount{Name: b.Key, Count: b.DocCount})
	}
	return counts, nil
}
