// Package memory implements an in-process document store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
)

var _ repository.DocumentStore = (*Repository)(nil)

// Repository keeps documents in maps guarded by a mutex. Each call is atomic;
// sequences of calls are not.
type Repository struct {
	mu          sync.RWMutex
	collections map[string]map[string]repository.Document
}

// NewRepository creates an empty store
func NewRepository() *Repository {
	return &Repository{collections: make(map[string]map[string]repository.Document)}
}

func (r *Repository) InitSchema(context.Context) error {
	return nil
}

func (r *Repository) Insert(ctx context.Context, collection string, doc repository.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	docs := r.collection(collection)
	if _, ok := docs[doc.Key]; ok {
		return nil
	}
	docs[doc.Key] = clone(doc)
	return nil
}

func (r *Repository) Upsert(ctx context.Context, collection string, doc repository.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.collection(collection)[doc.Key] = clone(doc)
	return nil
}

func (r *Repository) Get(ctx context.Context, collection, key string) (*repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.collections[collection][key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(doc)
	return &out, nil
}

func (r *Repository) Query(ctx context.Context, collection string, filter repository.Filter) ([]repository.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var docs []repository.Document
	for key, doc := range r.collections[collection] {
		if filter.Key != "" && key != filter.Key {
			continue
		}
		if !filter.From.IsZero() && doc.Timestamp.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !doc.Timestamp.Before(filter.To) {
			continue
		}
		docs = append(docs, clone(doc))
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Timestamp.Equal(docs[j].Timestamp) {
			return docs[i].Key < docs[j].Key
		}
		return docs[i].Timestamp.Before(docs[j].Timestamp)
	})

	if filter.Limit > 0 && len(docs) > filter.Limit {
		docs = docs[:filter.Limit]
	}
	return docs, nil
}

func (r *Repository) Ping(context.Context) error {
	return nil
}

func (r *Repository) Close() error {
	return nil
}

func (r *Repository) collection(name string) map[string]repository.Document {
	docs, ok := r.collections[name]
	if !ok {
		docs = make(map[string]repository.Document)
		r.collections[name] = docs
	}
	return docs
}

func clone(doc repository.Document) repository.Document {
	doc.Body = append([]byte(nil), doc.Body...)
	return doc
}
