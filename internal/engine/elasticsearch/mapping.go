package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for item documents.
const DefaultIndexName = "rewear_items"

// buildIndexMapping returns the full JSON mapping for the items index,
// including the edge-ngram autocomplete analyzer used for suggestions.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "item_text_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "english_stop", "english_stemmer"]
        },
        "autocomplete_analyzer": {
          "type": "custom",
          "tokenizer": "autocomplete_tokenizer",
          "filter": ["lowercase"]
        },
        "autocomplete_search": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase"]
        }
      },
      "tokenizer": {
        "autocomplete_tokenizer": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20,
          "token_chars": ["letter", "digit"]
        }
      },
      "filter": {
        "english_stop": {
          "type": "stop",
          "stopwords": "_english_"
        },
        "english_stemmer": {
          "type": "stemmer",
          "language": "english"
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "uploader_id": { "type": "keyword" },
      "title":       { "type": "text", "analyzer": "item_text_analyzer", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "autocomplete": { "type": "text", "analyzer": "autocomplete_analyzer", "search_analyzer": "autocomplete_search" } } },
      "description": { "type": "text", "analyzer": "item_text_analyzer" },
      "category":    { "type": "text", "analyzer": "item_text_analyzer", "fields": { "keyword": { "type": "keyword" } } },
      "type":        { "type": "text", "analyzer": "item_text_analyzer", "fields": { "keyword": { "type": "keyword" } } },
      "size":        { "type": "keyword" },
      "condition":   { "type": "keyword" },
      "tags":        { "type": "keyword" },
      "images":      { "type": "keyword", "index": false },
      "status":      { "type": "keyword" },
      "created_at":  { "type": "date" },
      "updated_at":  { "type": "date" }
    }
  }
}`
}
