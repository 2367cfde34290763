package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
)

// minOccurrences is the floor below which a query never surfaces in
// trending or popular rankings; it filters one-off noise.
const minOccurrences = 2

// DB is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists and aggregates the search analytics log.
type Store struct {
	db DB
}

// NewStore creates an analytics store over the given database handle.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Insert appends one analytics record to the log.
func (s *Store) Insert(ctx context.Context, rec *domain.AnalyticsRecord) error {
	filters, err := json.Marshal(rec.Filters)
	if err != nil {
		return fmt.Errorf("analytics insert: marshal filters: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO search_analytics (query, filters, result_count, took_ms, client_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Query, filters, rec.ResultCount, rec.TookMs, rec.ClientID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("analytics insert: %w", err)
	}
	return nil
}

// Trending returns the most frequent queries within the sliding window,
// ranked by occurrence count with average result count as the tie-break.
// An empty log yields an empty slice, never an error.
func (s *Store) Trending(ctx context.Context, limit int, window time.Duration) ([]domain.TrendingQuery, error) {
	since := time.Now().UTC().Add(-window)

	rows, err := s.db.Query(ctx, `
		SELECT query,
		       COUNT(*)          AS occurrences,
		       AVG(result_count) AS avg_results,
		       MAX(created_at)   AS last_seen
		FROM search_analytics
		WHERE created_at >= $1 AND query <> ''
		GROUP BY query
		HAVING COUNT(*) >= $2
		ORDER BY occurrences DESC, avg_results DESC, query ASC
		LIMIT $3`,
		since, minOccurrences, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("analytics trending: %w", err)
	}
	defer rows.Close()

	var trending []domain.TrendingQuery
	for rows.Next() {
		var q domain.TrendingQuery
		if err := rows.Scan(&q.Query, &q.Count, &q.AvgResults, &q.LastSeen); err != nil {
			return nil, fmt.Errorf("analytics trending: scan: %w", err)
		}
		trending = append(trending, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics trending: rows: %w", err)
	}

	return trending, nil
}

// Popular returns queries ranked by a composite of raw frequency and the
// number of distinct clients that issued them within the window. The
// optional category narrows the log to searches filtered on it.
func (s *Store) Popular(ctx context.Context, limit int, window time.Duration, category string) ([]domain.PopularQuery, error) {
	since := time.Now().UTC().Add(-window)

	rows, err := s.db.Query(ctx, `
		SELECT query,
		       COUNT(*)                  AS frequency,
		       AVG(result_count)         AS avg_results,
		       COUNT(DISTINCT client_id) AS unique_clients
		FROM search_analytics
		WHERE created_at >= $1
		  AND query <> ''
		  AND ($2 = '' OR filters->>'category' = $2)
		GROUP BY query
		HAVING COUNT(*) >= $3
		ORDER BY COUNT(*) + 2 * COUNT(DISTINCT client_id) DESC, query ASC
		LIMIT $4`,
		since, category, minOccurrences, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("analytics popular: %w", err)
	}
	defer rows.Close()

	var popular []domain.PopularQuery
	for rows.Next() {
		var q domain.PopularQuery
		if err := rows.Scan(&q.Query, &q.Frequency, &q.AvgResults, &q.UniqueClients); err != nil {
			return nil, fmt.Errorf("analytics popular: scan: %w", err)
		}
		popular = append(popular, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics popular: rows: %w", err)
	}

	return popular, nil
}
