// Package sqlite implements the document store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
)

var _ repository.DocumentStore = (*Repository)(nil)

// Repository implements DocumentStore for SQLite. Timestamps are stored as
// unix milliseconds so range filters compare integers.
type Repository struct {
	db  *sql.DB
	log *zap.Logger
}

// New opens the database at path in WAL mode
func New(path string, log *zap.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &Repository{db: db, log: log}, nil
}

// InitSchema creates the documents table and its time index
func (r *Repository) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			doc_key TEXT NOT NULL,
			ts INTEGER NOT NULL,
			body TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (collection, doc_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection_ts ON documents(collection, ts)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	r.log.Info("SQLite schema initialized successfully")
	return nil
}

// Insert writes a document unless the key already exists
func (r *Repository) Insert(ctx context.Context, collection string, doc repository.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO documents (collection, doc_key, ts, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, collection, doc.Key, doc.Timestamp.UnixMilli(), string(doc.Body), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Upsert writes a document, replacing the previous body
func (r *Repository) Upsert(ctx context.Context, collection string, doc repository.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (collection, doc_key, ts, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, doc_key) DO UPDATE SET
			ts = excluded.ts,
			body = excluded.body,
			updated_at = excluded.updated_at
	`, collection, doc.Key, doc.Timestamp.UnixMilli(), string(doc.Body), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Get returns a document by key
func (r *Repository) Get(ctx context.Context, collection, key string) (*repository.Document, error) {
	var ts int64
	var body string

	err := r.db.QueryRowContext(ctx,
		`SELECT ts, body FROM documents WHERE collection = ? AND doc_key = ?`,
		collection, key,
	).Scan(&ts, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &repository.Document{Key: key, Timestamp: time.UnixMilli(ts).UTC(), Body: []byte(body)}, nil
}

// Query returns documents in the time range ordered by timestamp
func (r *Repository) Query(ctx context.Context, collection string, filter repository.Filter) ([]repository.Document, error) {
	conditions := []string{"collection = ?"}
	args := []any{collection}

	if filter.Key != "" {
		conditions = append(conditions, "doc_key = ?")
		args = append(args, filter.Key)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "ts >= ?")
		args = append(args, filter.From.UnixMilli())
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "ts < ?")
		args = append(args, filter.To.UnixMilli())
	}

	query := "SELECT doc_key, ts, body FROM documents WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY ts ASC, doc_key ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []repository.Document
	for rows.Next() {
		var doc repository.Document
		var ts int64
		var body string
		if err := rows.Scan(&doc.Key, &ts, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		doc.Timestamp = time.UnixMilli(ts).UTC()
		doc.Body = []byte(body)
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// Ping checks if the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}
