// Package backend opens the row store selected by configuration.
package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"socialsync/internal/config"
	appLog "socialsync/internal/log"
	"socialsync/internal/store"
	"socialsync/internal/store/memory"
	"socialsync/internal/store/sqlstore"
)

// Open returns the store for cfg.Driver. An empty driver opens an in-memory
// store.
func Open(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		appLog.Info("store opened", "driver", config.DriverMemory)
		return memory.New(nil), nil
	case config.DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("store: sqlite path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("store: create sqlite dir: %w", err)
		}
		s, err := sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("store: open sqlite %s: %w", cfg.SQLitePath, err)
		}
		appLog.Info("store opened", "driver", config.DriverSQLite, "path", cfg.SQLitePath)
		return s, nil
	case config.DriverPostgres:
		s, err := sqlstore.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("store: open postgres: %w", err)
		}
		appLog.Info("store opened", "driver", config.DriverPostgres)
		return s, nil
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}
