// Package postgres implements the document store on a PostgreSQL jsonb table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
)

var _ repository.DocumentStore = (*Repository)(nil)

// Repository implements DocumentStore for PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewPool creates and verifies a pgx connection pool
func NewPool(ctx context.Context, cfg *config.Postgres) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(pool *pgxpool.Pool, log *zap.Logger) *Repository {
	return &Repository{
		pool: pool,
		log:  log,
	}
}

// InitSchema creates the documents table and its time index
func (r *Repository) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			doc_key TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			body JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, doc_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection_ts ON documents (collection, ts)`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	r.log.Info("PostgreSQL schema initialized successfully")
	return nil
}

// Insert writes a document unless the key already exists
func (r *Repository) Insert(ctx context.Context, collection string, doc repository.Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (collection, doc_key, ts, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, doc_key) DO NOTHING
	`, collection, doc.Key, doc.Timestamp.UTC(), string(doc.Body))
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Upsert writes a document, replacing the previous body
func (r *Repository) Upsert(ctx context.Context, collection string, doc repository.Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO documents (collection, doc_key, ts, body)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, doc_key)
		DO UPDATE SET ts = EXCLUDED.ts, body = EXCLUDED.body, updated_at = now()
	`, collection, doc.Key, doc.Timestamp.UTC(), string(doc.Body))
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Get returns a document by key
func (r *Repository) Get(ctx context.Context, collection, key string) (*repository.Document, error) {
	doc := repository.Document{Key: key}
	var body string

	err := r.pool.QueryRow(ctx, `
		SELECT ts, body::text FROM documents WHERE collection = $1 AND doc_key = $2
	`, collection, key).Scan(&doc.Timestamp, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	doc.Body = []byte(body)
	return &doc, nil
}

// Query returns documents in the time range ordered by timestamp
func (r *Repository) Query(ctx context.Context, collection string, filter repository.Filter) ([]repository.Document, error) {
	conditions := []string{"collection = $1"}
	args := []any{collection}

	add := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.Key != "" {
		add("doc_key = $%d", filter.Key)
	}
	if !filter.From.IsZero() {
		add("ts >= $%d", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		add("ts < $%d", filter.To.UTC())
	}

	query := "SELECT doc_key, ts, body::text FROM documents WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY ts ASC, doc_key ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

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

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}
