// Package backend opens the document store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/config"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/clickhouse"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/memory"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/postgres"
	"github.com/BarkinBalci/lifecycle-analytics-service/internal/repository/sqlite"
)

// Open connects to the configured backend and initializes its schema
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.DocumentStore, error) {
	var (
		store repository.DocumentStore
		err   error
	)

	switch cfg.Store.Backend {
	case config.StoreClickHouse:
		var client *clickhouse.Client
		client, err = clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
		if err == nil {
			store = clickhouse.NewRepository(client, log)
		}
	case config.StorePostgres:
		pool, perr := postgres.NewPool(ctx, &cfg.Postgres)
		if perr != nil {
			err = perr
		} else {
			store = postgres.NewRepository(pool, log)
		}
	case config.StoreSQLite:
		store, err = openSQLite(cfg.SQLite.Path, log)
	case config.StoreMemory:
		store = memory.NewRepository()
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	if err := store.InitSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Info("Document store ready", zap.String("backend", cfg.Store.Backend))
	return store, nil
}

func openSQLite(path string, log *zap.Logger) (repository.DocumentStore, error) {
	repo, err := sqlite.New(path, log)
	if err != nil {
		return nil, err
	}
	return repo, nil
}
