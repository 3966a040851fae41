package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
)

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{Store: config.Store{Backend: config.StoreMemory}}

	store, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store:  config.Store{Backend: config.StoreSQLite},
		SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "lifecycle.db")},
	}

	store, err := Open(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpen_UnsupportedBackend(t *testing.T) {
	cfg := &config.Config{Store: config.Store{Backend: "mongodb"}}

	_, err := Open(context.Background(), cfg, zap.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store backend")
}
