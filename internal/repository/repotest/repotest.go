// Package repotest holds the behavior every DocumentStore backend must share.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
)

var base = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// Run exercises a freshly initialized, empty store
func Run(t *testing.T, store repository.DocumentStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, repository.CollectionProfiles, "nobody")
		assert.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("InsertIsWriteOnce", func(t *testing.T) {
		first := repository.Document{Key: "attr-1", Timestamp: base, Body: []byte(`{"source":"google"}`)}
		second := repository.Document{Key: "attr-1", Timestamp: base, Body: []byte(`{"source":"bing"}`)}

		require.NoError(t, store.Insert(ctx, repository.CollectionAttribution, first))
		require.NoError(t, store.Insert(ctx, repository.CollectionAttribution, second))

		got, err := store.Get(ctx, repository.CollectionAttribution, "attr-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"source":"google"}`, string(got.Body))
		assert.True(t, base.Equal(got.Timestamp))
	})

	t.Run("UpsertReplaces", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, repository.CollectionProfiles, repository.Document{
			Key: "user-1", Timestamp: base, Body: []byte(`{"total":10}`),
		}))
		require.NoError(t, store.Upsert(ctx, repository.CollectionProfiles, repository.Document{
			Key: "user-1", Timestamp: base.Add(time.Hour), Body: []byte(`{"total":20}`),
		}))

		got, err := store.Get(ctx, repository.CollectionProfiles, "user-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"total":20}`, string(got.Body))
		assert.True(t, base.Add(time.Hour).Equal(got.Timestamp))
	})

	t.Run("QueryWindow", func(t *testing.T) {
		for i, offset := range []time.Duration{-time.Hour, 0, 24 * time.Hour, 7 * 24 * time.Hour} {
			require.NoError(t, store.Insert(ctx, repository.CollectionRevenue, repository.Document{
				Key:       string(rune('a' + i)),
				Timestamp: base.Add(offset),
				Body:      []byte(`{}`),
			}))
		}

		docs, err := store.Query(ctx, repository.CollectionRevenue, repository.Filter{
			From: base,
			To:   base.Add(7 * 24 * time.Hour),
		})
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "b", docs[0].Key)
		assert.Equal(t, "c", docs[1].Key)

		limited, err := store.Query(ctx, repository.CollectionRevenue, repository.Filter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, limited, 1)
		assert.Equal(t, "a", limited[0].Key)

		byKey, err := store.Query(ctx, repository.CollectionRevenue, repository.Filter{Key: "d"})
		require.NoError(t, err)
		require.Len(t, byKey, 1)
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		docs, err := store.Query(ctx, repository.CollectionReports, repository.Filter{})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}
