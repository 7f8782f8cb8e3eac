package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/nikbrunner/xbm/internal/config"
)

// Open returns the backend selected in cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return NewSQLiteStorage(cfg.SQLitePath)
	case config.BackendRedis:
		dial := cfg.Redis.DialTimeout
		if dial <= 0 {
			dial = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, dial)
		defer cancel()
		return NewRedisStorage(ctx, RedisOptions{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: dial,
			PoolSize:    cfg.Redis.PoolSize,
		})
	case config.BackendJSON, "":
		return NewJSONStorage(cfg.Dir), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
}
