package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

func TestSuggest_ShortQueryReturnsEmpty(t *testing.T) {
	svc := newTestService(t)

	for _, q := range []string{"", "j", " j "} {
		result, err := svc.Suggest(context.Background(), &domain.SuggestionRequest{Query: q})
		require.NoError(t, err, "query %q", q)
		assert.NotNil(t, result.Suggestions)
		assert.Empty(t, result.Suggestions)
	}
}

func TestSuggest_FuzzyMatchesTitles(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.IndexItem(ctx, testItem("Denim Jacket")))
	require.NoError(t, svc.IndexItem(ctx, testItem("Leather Jacket")))

	result, err := svc.Suggest(ctx, &domain.SuggestionRequest{Query: "jak", Limit: 10})
	require.NoError(t, err)

	texts := make([]string, 0, len(result.Suggestions))
	for _, s := range result.Suggestions {
		texts = append(texts, s.Text)
	}
	assert.Contains(t, texts, "Denim Jacket")
	assert.Contains(t, texts, "Leather Jacket")

	for i := 1; i < len(result.Suggestions); i++ {
		assert.GreaterOrEqual(t, result.Suggestions[i-1].Score, result.Suggestions[i].Score)
	}
}

func TestSuggest_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	for i := 0; i < 30; i++ {
		item := testItem("Jacket Variant")
		require.NoError(t, svc.IndexItem(ctx, item))
	}

	result, err := svc.Suggest(ctx, &domain.SuggestionRequest{Query: "jacket", Limit: 500})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Suggestions), maxSuggestLimit)
}

func TestSuggest_CategoryScope(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	jacket := testItem("Denim Jacket")
	require.NoError(t, svc.IndexItem(ctx, jacket))
	dress := testItem("Denim Dress")
	dress.Category = "dresses"
	require.NoError(t, svc.IndexItem(ctx, dress))

	result, err := svc.Suggest(ctx, &domain.SuggestionRequest{
		Query:    "denim",
		Category: "dresses",
		Limit:    10,
	})
	require.NoError(t, err)

	for _, s := range result.Suggestions {
		assert.NotEqual(t, "Denim Jacket", s.Text)
	}
}

func TestMergeSuggestions_DeduplicatesByTextKeepingBestScore(t *testing.T) {
	merged := mergeSuggestions([]domain.Suggestion{
		{Text: "Jackets", Score: 0.6, Source: domain.SuggestionSourceCategory},
		{Text: "jackets", Score: 0.9, Source: domain.SuggestionSourceTitle},
		{Text: "Jeans", Score: 0.5, Source: domain.SuggestionSourceTitle},
	}, 10)

	require.Len(t, merged, 2)
	assert.Equal(t, "jackets", merged[0].Text)
	assert.Equal(t, 0.9, merged[0].Score)
}

func TestMergeSuggestions_CapsTitleShare(t *testing.T) {
	candidates := []domain.Suggestion{
		{Text: "Title A", Score: 1.0, Source: domain.SuggestionSourceTitle},
		{Text: "Title B", Score: 0.95, Source: domain.SuggestionSourceTitle},
		{Text: "Title C", Score: 0.9, Source: domain.SuggestionSourceTitle},
		{Text: "Title D", Score: 0.85, Source: domain.SuggestionSourceTitle},
		{Text: "jackets", Score: 0.5, Source: domain.SuggestionSourceCategory},
		{Text: "outerwear", Score: 0.4, Source: domain.SuggestionSourceType},
	}

	merged := mergeSuggestions(candidates, 4)
	require.Len(t, merged, 4)

	titles := 0
	for _, s := range merged {
		if s.Source == domain.SuggestionSourceTitle {
			titles++
		}
	}
	assert.Equal(t, 2, titles)
	assert.Equal(t, "jackets", merged[2].Text)
	assert.Equal(t, "outerwear", merged[3].Text)
}

func TestMergeSuggestions_NoCapWithoutOtherSources(t *testing.T) {
	candidates := []domain.Suggestion{
		{Text: "Title A", Score: 1.0, Source: domain.SuggestionSourceTitle},
		{Text: "Title B", Score: 0.9, Source: domain.SuggestionSourceTitle},
		{Text: "Title C", Score: 0.8, Source: domain.SuggestionSourceTitle},
	}

	merged := mergeSuggestions(candidates, 3)
	assert.Len(t, merged, 3)
}

func TestMergeSuggestions_SortsByScoreThenText(t *testing.T) {
	candidates := []domain.Suggestion{
		{Text: "zeta", Score: 0.7, Source: domain.SuggestionSourceCategory},
		{Text: "alpha", Score: 0.7, Source: domain.SuggestionSourceType},
		{Text: "top", Score: 0.9, Source: domain.SuggestionSourceCategory},
	}

	merged := mergeSuggestions(candidates, 10)
	require.Len(t, merged, 3)
	assert.Equal(t, "top", merged[0].Text)
	assert.Equal(t, "alpha", merged[1].Text)
	assert.Equal(t, "zeta", merged[2].Text)
}
