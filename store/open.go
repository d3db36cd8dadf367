package store

import (
	"context"
	"fmt"

	"droidfolio/config"
	"droidfolio/infrastructure/redis"
	"droidfolio/pkg/logger"
)

// Open builds the backend selected by cfg.Store.Backend
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	log := logger.WithField("backend", cfg.Store.Backend)

	switch cfg.Store.Backend {
	case config.BackendMemory, "":
		log.Warn("Using in-memory record store; data is lost on restart")
		return NewMemory(), nil

	case config.BackendFile:
		s, err := NewFile(cfg.Store.FilePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.Store.FilePath).Info("Opened file record store")
		return s, nil

	case config.BackendRedis:
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		log.WithField("addr", cfg.Redis.Address).Info("Connected to Redis record store")
		return NewRedis(client, cfg.Store.KeyPrefix), nil

	case config.BackendPostgres:
		s, err := OpenSQL(ctx, DialectPostgres, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("Connected to Postgres record store")
		return s, nil

	case config.BackendSQLite:
		s, err := OpenSQL(ctx, DialectSQLite, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.Store.SQLitePath).Info("Opened SQLite record store")
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}
