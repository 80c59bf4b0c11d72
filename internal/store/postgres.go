package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sallywang319/myMediaCrawler/internal/types"
)

// PostgresSink persists records to PostgreSQL through a pgx pool.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresSink) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// CreateRun records the start of a crawl run and returns its ID.
func (s *PostgresSink) CreateRun(ctx context.Context, description string, keywords []string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO crawl_runs (description, keywords, status)
		 VALUES ($1, $2, 'running')
		 RETURNING id`,
		description, keywords,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a crawl run finished with its final counters.
func (s *PostgresSink) CompleteRun(ctx context.Context, runID uuid.UUID, status string, discovered, saved, failed int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE crawl_runs
		 SET status = $1, discovered = $2, saved = $3, failed = $4, completed_at = NOW()
		 WHERE id = $5`,
		status, discovered, saved, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// Upsert implements Sink. (platform, native_id) is the record identity, so
// the eager save and the detail update hit the same row.
func (s *PostgresSink) Upsert(ctx context.Context, record *types.ItemRecord) error {
	mediaJSON, err := json.Marshal(record.MediaURLs)
	if err != nil {
		return &WriteError{Platform: record.Platform, NativeID: record.NativeID, Message: "failed to marshal media urls", Cause: err}
	}
	commentsJSON, err := json.Marshal(record.Comments)
	if err != nil {
		return &WriteError{Platform: record.Platform, NativeID: record.NativeID, Message: "failed to marshal comments", Cause: err}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO crawled_items
		     (platform, native_id, run_id, status, title, content, author, url,
		      media_urls, comments, relevance_score, relevance_method, relevance_reason,
		      discovered_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (platform, native_id) DO UPDATE SET
		     run_id = $3, status = $4, title = $5, content = $6, author = $7, url = $8,
		     media_urls = $9, comments = $10, relevance_score = $11,
		     relevance_method = $12, relevance_reason = $13, updated_at = $15`,
		record.Platform, record.NativeID, record.RunID, string(record.Status),
		record.Title, record.Content, record.Author, record.URL,
		mediaJSON, commentsJSON,
		record.RelevanceScore, record.RelevanceMethod, record.RelevanceReason,
		record.DiscoveredAt, record.UpdatedAt,
	)
	if err != nil {
		return &WriteError{Platform: record.Platform, NativeID: record.NativeID, Message: "upsert failed", Cause: err}
	}
	return nil
}

// GetItem retrieves a single record, or nil when absent.
func (s *PostgresSink) GetItem(ctx context.Context, platform, nativeID string) (*types.ItemRecord, error) {
	var record types.ItemRecord
	var status string
	var mediaJSON, commentsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT platform, native_id, run_id, status, title, content, author, url,
		        media_urls, comments, relevance_score, relevance_method, relevance_reason,
		        discovered_at, updated_at
		 FROM crawled_items WHERE platform = $1 AND native_id = $2`,
		platform, nativeID,
	).Scan(&record.Platform, &record.NativeID, &record.RunID, &status,
		&record.Title, &record.Content, &record.Author, &record.URL,
		&mediaJSON, &commentsJSON,
		&record.RelevanceScore, &record.RelevanceMethod, &record.RelevanceReason,
		&record.DiscoveredAt, &record.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	record.Status = types.Status(status)
	if len(mediaJSON) > 0 {
		_ = json.Unmarshal(mediaJSON, &record.MediaURLs)
	}
	if len(commentsJSON) > 0 {
		_ = json.Unmarshal(commentsJSON, &record.Comments)
	}
	return &record, nil
}

// ItemFilters holds optional filters for listing crawled items.
type ItemFilters struct {
	Platform string
	RunID    string
	Status   types.Status
	Since    time.Time
	Limit    int
}

// ListItems retrieves records with optional filters, newest first.
func (s *PostgresSink) ListItems(ctx context.Context, filters ItemFilters) ([]types.ItemRecord, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT platform, native_id, run_id, status, title, content, author, url,
	                 media_urls, comments, relevance_score, relevance_method, relevance_reason,
	                 discovered_at, updated_at
	          FROM crawled_items WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Platform != "" {
		query += fmt.Sprintf(" AND platform = $%d", argNum)
		args = append(args, filters.Platform)
		argNum++
	}
	if filters.RunID != "" {
		query += fmt.Sprintf(" AND run_id = $%d", argNum)
		args = append(args, filters.RunID)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}
	if !filters.Since.IsZero() {
		query += fmt.Sprintf(" AND updated_at >= $%d", argNum)
		args = append(args, filters.Since)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var records []types.ItemRecord
	for rows.Next() {
		var record types.ItemRecord
		var status string
		var mediaJSON, commentsJSON []byte
		if err := rows.Scan(&record.Platform, &record.NativeID, &record.RunID, &status,
			&record.Title, &record.Content, &record.Author, &record.URL,
			&mediaJSON, &commentsJSON,
			&record.RelevanceScore, &record.RelevanceMethod, &record.RelevanceReason,
			&record.DiscoveredAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		record.Status = types.Status(status)
		if len(mediaJSON) > 0 {
			_ = json.Unmarshal(mediaJSON, &record.MediaURLs)
		}
		if len(commentsJSON) > 0 {
			_ = json.Unmarshal(commentsJSON, &record.Comments)
		}
		records = append(records, record)
	}
	return records, nil
}
