package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/edubook/internal/config"
	"github.com/Freeeeeet/edubook/internal/kvstore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// OpenStore открывает хранилище по cfg.StoreDriver и применяет миграции.
// Возвращённую функцию закрытия нужно вызвать при остановке.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (kvstore.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on exit")
		return kvstore.NewMemoryStore(), func() {}, nil

	case config.DriverSQLite:
		store, err := kvstore.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := migrate(ctx, store.DB(), cfg.StoreDriver, logger); err != nil {
			store.Close()
			return nil, nil, err
		}
		logger.Info("SQLite store opened", zap.String("path", cfg.SQLitePath))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close sqlite store", zap.Error(err))
			}
		}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}

		// Goose работает с *sql.DB, поэтому создаём его из пула
		db := stdlib.OpenDBFromPool(pool)
		err = migrate(ctx, db, cfg.StoreDriver, logger)
		db.Close()
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("PostgreSQL store connected")
		return kvstore.NewPostgresStore(pool), pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
