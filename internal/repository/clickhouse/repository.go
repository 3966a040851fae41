package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
)

var _ repository.DocumentStore = (*Repository)(nil)

// Repository implements DocumentStore on a ReplacingMergeTree table.
// Every write is an insert; reads use FINAL so the highest version wins.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the documents table
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		collection LowCardinality(String),
		doc_key String,
		ts DateTime64(3, 'UTC'),
		body String,
		version UInt64,
		written_at DateTime64(3) DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY (collection, doc_key)
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// insertCeiling bounds insert versions below every upsert version
const insertCeiling uint64 = 1 << 42

// Insert writes a write-once document. An existing key is left untouched.
// Insert versions shrink over time so when two replicas race past the
// existence check the earlier row survives the merge.
func (r *Repository) Insert(ctx context.Context, collection string, doc repository.Document) error {
	_, err := r.Get(ctx, collection, doc.Key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return r.write(ctx, collection, doc, insertVersion(time.Now()))
}

func insertVersion(now time.Time) uint64 {
	return insertCeiling - uint64(now.UnixMilli())
}

// Upsert writes a document with a time-based version
func (r *Repository) Upsert(ctx context.Context, collection string, doc repository.Document) error {
	return r.write(ctx, collection, doc, uint64(time.Now().UnixNano()))
}

func (r *Repository) write(ctx context.Context, collection string, doc repository.Document, version uint64) error {
	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO documents (collection, doc_key, ts, body, version)")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	if err := batch.Append(collection, doc.Key, doc.Timestamp.UTC(), string(doc.Body), version); err != nil {
		return fmt.Errorf("failed to append document to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// Get returns the latest version of a document
func (r *Repository) Get(ctx context.Context, collection, key string) (*repository.Document, error) {
	row := r.client.Conn().QueryRow(ctx, `
		SELECT ts, body
		FROM documents FINAL
		WHERE collection = ? AND doc_key = ?
		LIMIT 1
	`, collection, key)

	var ts time.Time
	var body string
	if err := row.Scan(&ts, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &repository.Document{Key: key, Timestamp: ts, Body: []byte(body)}, nil
}

// Query returns documents in the time range ordered by timestamp
func (r *Repository) Query(ctx context.Context, collection string, filter repository.Filter) ([]repository.Document, error) {
	conditions := []string{"collection = ?"}
	args := []interface{}{collection}

	if filter.Key != "" {
		conditions = append(conditions, "doc_key = ?")
		args = append(args, filter.Key)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "ts >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "ts < ?")
		args = append(args, filter.To.UTC())
	}

	query := fmt.Sprintf(`
		SELECT doc_key, ts, body
		FROM documents FINAL
		WHERE %s
		ORDER BY ts ASC
	`, strings.Join(conditions, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.client.Conn().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close document rows", zap.Error(err))
		}
	}(rows)

	var docs []repository.Document
	for rows.Next() {
		var doc repository.Document
		var body string
		if err := rows.Scan(&doc.Key, &doc.Timestamp, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		doc.Body = []byte(body)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}
