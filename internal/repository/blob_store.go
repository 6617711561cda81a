package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/internal/models"
	"github.com/MrTune/Sem-Planner/pkg/cache"
	"github.com/MrTune/Sem-Planner/pkg/config"
	"github.com/MrTune/Sem-Planner/pkg/database"
)

// BlobStore is the key-value substrate holding the persisted collection.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Watch(ctx context.Context) (<-chan models.BlobChange, error)
	Origin() string
	Close() error
}

var (
	_ BlobStore = (*MemoryBlobRepository)(nil)
	_ BlobStore = (*RedisBlobRepository)(nil)
	_ BlobStore = (*PostgresBlobRepository)(nil)
)

// OpenBlobStore connects the driver named by cfg.Store.Driver.
func OpenBlobStore(ctx context.Context, cfg *config.Config, origin string, logger *zap.Logger) (BlobStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Store.Driver {
	case "", config.StoreDriverMemory:
		return NewMemoryBlobHub().Open(origin), nil
	case config.StoreDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisBlobRepository(client, cfg.Store.Channel, origin, logger), nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := NewPostgresBlobRepository(db, database.DSN(cfg.Database), cfg.Store.Channel, origin, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
