package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/astro-analytics/video-tagging-go/internal/config"
)

// ErrUnknownBackend is returned for an unrecognised storage.backend value.
var ErrUnknownBackend = errors.New("unknown storage backend")

// OpenBackend builds the backend selected by cfg.
func OpenBackend(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryBackend(), nil
	case config.BackendFile:
		return NewFileBackend(cfg.FileDir)
	case config.BackendRedis:
		return NewRedisBackend(ctx, cfg.RedisURL)
	case config.BackendPostgres:
		pool, err := NewPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		backend, err := NewPostgresBackend(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
