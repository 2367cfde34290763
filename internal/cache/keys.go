package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

// Cache key namespaces. Invalidation on catalog mutation purges the search,
// suggest, and facets namespaces wholesale. Item detail entries are written
// into the shared Redis by the listing service; search deletes them by ID
// when it learns of a mutation.
const (
	NamespaceSearch  = "search"
	NamespaceSuggest = "suggestions"
	NamespaceFacets  = "facets"
	NamespaceItem    = "item"
)

// SearchKey derives the deterministic cache key for a search request.
// The request is normalized first (query trimmed and lower-cased, empty
// filters dropped, filter fields encoded in sorted order) so two logically
// identical requests always map to the same key regardless of how the
// client ordered its parameters.
func SearchKey(req *domain.SearchRequest) string {
	var b strings.Builder

	writePair(&b, "q", normalizeQuery(req.Query))
	writeFilters(&b, req.Filters)
	writePair(&b, "sort", req.Sort)
	writePair(&b, "page", strconv.Itoa(req.Page))
	writePair(&b, "size", strconv.Itoa(req.PageSize))
	writePair(&b, "facets", strconv.FormatBool(req.Options.IncludeFacets))
	writePair(&b, "highlight", strconv.FormatBool(req.Options.IncludeHighlight))

	return NamespaceSearch + ":" + digest(b.String())
}

// SuggestKey derives the deterministic cache key for a suggestion request.
func SuggestKey(req *domain.SuggestionRequest) string {
	var b strings.Builder

	writePair(&b, "q", normalizeQuery(req.Query))
	writePair(&b, "category", strings.ToLower(req.Category))
	writePair(&b, "limit", strconv.Itoa(req.Limit))

	return NamespaceSuggest + ":" + digest(b.String())
}

// FieldCountsKey derives the cache key for a category/type enumeration.
func FieldCountsKey(field string) string {
	return NamespaceFacets + ":" + field
}

// ItemKey derives the cache key for a single item detail entry.
func ItemKey(id string) string {
	return NamespaceItem + ":" + id
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// writeFilters encodes the set filter fields as sorted field=value pairs.
// Empty fields emit nothing, so an absent filter and a zero-value filter
// produce identical encodings.
func writeFilters(b *strings.Builder, f domain.FilterSet) {
	pairs := map[string]string{}

	put := func(field, value string) {
		if value != "" {
			pairs[field] = value
		}
	}

	put("category", f.Category)
	put("type", f.Type)
	put("condition", f.Condition)
	put("status", f.Status)
	put("uploader_id", f.UploaderID)
	put("size", f.Size)

	if len(f.Tags) > 0 {
		tags := make([]string, len(f.Tags))
		for i, tag := range f.Tags {
			// Escape so a tag containing the join delimiter cannot alias
			// with a multi-tag filter.
			tags[i] = url.QueryEscape(strings.ToLower(tag))
		}
		sort.Strings(tags)
		pairs["tags"] = strings.Join(tags, ",")
	}
	if f.DateFrom != nil {
		pairs["date_from"] = f.DateFrom.UTC().Format(time.RFC3339)
	}
	if f.DateTo != nil {
		pairs["date_to"] = f.DateTo.UTC().Format(time.RFC3339)
	}

	fields := make([]string, 0, len(pairs))
	for field := range pairs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		writePair(b, field, pairs[field])
	}
}

// writePair appends one field=value pair to the canonical encoding. The
// value is length-prefixed so values containing the pair delimiters cannot
// alias with a different combination of fields.
func writePair(b *strings.Builder, field, value string) {
	fmt.Fprintf(b, "%s=%d:%s;", field, len(value), value)
}

func digest(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
