package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

// suggestSource describes one fuzzy lookup: which field is matched and
// which document field supplies the suggestion text.
type suggestSource struct {
	name       string
	matchField string
	textField  string
}

var suggestSources = []suggestSource{
	{name: domain.SuggestionSourceTitle, matchField: "title.autocomplete", textField: "title"},
	{name: domain.SuggestionSourceCategory, matchField: "category", textField: "category"},
	{name: domain.SuggestionSourceType, matchField: "type", textField: "type"},
}

// esSuggestResponse decodes the slim responses of suggestion lookups.
type esSuggestResponse struct {
	Hits struct {
		MaxScore float64 `json:"max_score"`
		Hits     []struct {
			Score  float64     `json:"_score"`
			Source domain.Item `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Suggest runs independent fuzzy lookups against the title, category, and
// type fields of available items and returns the union of candidates, each
// tagged with its source. Scores are normalized per source to (0, 1].
// Non-available items never surface as suggestions.
func (e *Engine) Suggest(ctx context.Context, req *domain.SuggestionRequest) ([]domain.Suggestion, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}

	var all []domain.Suggestion
	for _, src := range suggestSources {
		candidates, err := e.suggestFrom(ctx, src, req, limit)
		if err != nil {
			return nil, err
		}
		all = append(all, candidates...)
	}

	return all, nil
}

// suggestFrom runs one fuzzy lookup and collapses duplicate texts, keeping
// the best-scoring document per distinct value.
func (e *Engine) suggestFrom(ctx context.Context, src suggestSource, req *domain.SuggestionRequest, limit int) ([]domain.Suggestion, error) {
	filters := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{
				"status": domain.StatusAvailable,
			},
		},
	}
	if req.Category != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{
				"category.keyword": req.Category,
			},
		})
	}

	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"match": map[string]interface{}{
							src.matchField: map[string]interface{}{
								"query":     req.Query,
								"fuzziness": "AUTO",
							},
						},
					},
				},
				"filter": filters,
			},
		},
		// Over-fetch so collapsing duplicate texts still fills the limit.
		"size":    limit * 3,
		"_source": []string{src.textField},
		"sort": []interface{}{
			map[string]interface{}{"_score": "desc"},
		},
	}

	data, err := json.Marshal(esQuery)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, transportErr(ctx, "elasticsearch suggest", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&errResp)
		return nil, apiErr("elasticsearch suggest", res.StatusCode, errResp.Error.Type, errResp.Error.Reason)
	}

	var esResp esSuggestResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch suggest: decode response: %w", err)
	}

	maxScore := esResp.Hits.MaxScore
	seen := make(map[string]struct{})
	var suggestions []domain.Suggestion
	for _, hit := range esResp.Hits.Hits {
		text := suggestText(hit.Source, src.name)
		if text == "" {
			continue
		}
		if _, exists := seen[text]; exists {
			continue
		}
		seen[text] = struct{}{}

		score := 1.0
		if maxScore > 0 {
			score = hit.Score / maxScore
		}
		suggestions = append(suggestions, domain.Suggestion{
			Text:   text,
			Score:  score,
			Source: src.name,
		})
		if len(suggestions) >= limit {
			break
		}
	}

	return suggestions, nil
}

func suggestText(item domain.Item, source string) string {
	switch source {
	case domain.SuggestionSourceTitle:
		return item.Title
	case domain.SuggestionSourceCategory:
		return item.Category
	case domain.SuggestionSourceType:
		return item.Type
	default:
		return ""
	}
}
