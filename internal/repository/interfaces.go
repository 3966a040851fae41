package repository

import (
	"context"
	"errors"
	"time"
)

// Collections
const (
	CollectionAttribution = "attribution"
	CollectionProfiles    = "lifecycle_profiles"
	CollectionRevenue     = "revenue"
	CollectionReports     = "weekly_reports"
)

// ErrNotFound is returned by Get when no document has the key
var ErrNotFound = errors.New("document not found")

// Document is a JSON body stored under a key and indexed by timestamp
type Document struct {
	Key       string
	Timestamp time.Time
	Body      []byte
}

// Filter selects documents of a collection. Zero values leave a bound open.
// From is inclusive and To is exclusive.
type Filter struct {
	Key   string
	From  time.Time
	To    time.Time
	Limit int
}

// DocumentStore defines the interface for document storage operations
type DocumentStore interface {
	// Insert writes a document once; inserting an existing key is a no-op
	Insert(ctx context.Context, collection string, doc Document) error

	// Get returns the document stored under key or ErrNotFound
	Get(ctx context.Context, collection, key string) (*Document, error)

	// Upsert writes a document, replacing any previous version
	Upsert(ctx context.Context, collection string, doc Document) error

	// Query returns matching documents ordered by timestamp
	Query(ctx context.Context, collection string, filter Filter) ([]Document, error)

	// InitSchema initializes the storage schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the storage connection is alive
	Ping(ctx context.Context) error

	// Close closes the store and releases resources
	Close() error
}
