package kvstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendClover = "clover"
)

// Config selects and configures a backend.
type Config struct {
	// Backend is one of memory, redis, sqlite, clover.
	Backend string

	// Redis settings
	Addr     string
	Password string
	DB       int

	// Path is the SQLite file or the clover directory.
	Path string

	// Table is the SQLite table or clover collection (default: no_sql).
	Table string
}

// Open creates the configured backend, verifies it is reachable and wraps it
// with Instrumented.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		impl Store
		err  error
	)

	switch cfg.Backend {
	case BackendMemory, "":
		impl = NewMemoryStore()
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
		}
		impl = NewRedisStore(client)
	case BackendSQLite:
		impl, err = NewSQLiteStore(ctx, cfg.Path, cfg.Table)
	case BackendClover:
		impl, err = NewCloverStore(cfg.Path, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown kvstore backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == "" {
		backend = BackendMemory
	}
	return Instrumented(impl, backend), nil
}
