package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
)

type blobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type quarantiner interface {
	Quarantine(key string, raw []byte, cause error) error
}

// GatewayConfig fixes the storage key and the size of the first-run collection.
type GatewayConfig struct {
	Key         string
	SeedCourses int
}

// CollectionGateway reads and writes the whole collection as one blob under one key.
type CollectionGateway struct {
	store      blobStore
	cfg        GatewayConfig
	quarantine quarantiner
	metrics    *MetricsService
	logger     *zap.Logger
	newID      func() string
	now        func() time.Time
}

// NewCollectionGateway constructs the gateway. quarantine and metrics may be nil.
func NewCollectionGateway(store blobStore, cfg GatewayConfig, quarantine quarantiner, metrics *MetricsService, logger *zap.Logger) *CollectionGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Key == "" {
		cfg.Key = "semesterPlannerData"
	}
	if cfg.SeedCourses < 0 {
		cfg.SeedCourses = 0
	}
	return &CollectionGateway{
		store:      store,
		cfg:        cfg,
		quarantine: quarantine,
		metrics:    metrics,
		logger:     logger,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Key returns the storage key the gateway owns.
func (g *CollectionGateway) Key() string { return g.cfg.Key }

// Load returns the persisted collection. A missing or unparsable blob is replaced by
// the seeded default, which is written back; LoadResult tells the two cases apart.
// Store transport failures are returned as errors.
func (g *CollectionGateway) Load(ctx context.Context) (models.Collection, models.LoadResult, error) {
	result := models.LoadResult{LoadedAt: g.now()}

	start := time.Now()
	raw, err := g.store.Get(ctx, g.cfg.Key)
	if errors.Is(err, appErrors.ErrBlobNotFound) {
		g.metrics.ObserveStore("get", nil, time.Since(start))
		result.Status = models.LoadStatusAbsent
		return g.seed(ctx, result)
	}
	g.metrics.ObserveStore("get", err, time.Since(start))
	if err != nil {
		return models.Collection{}, result, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to read planner state")
	}

	collection, changed, err := g.decode(raw)
	if err != nil {
		result.Status = models.LoadStatusCorrupted
		result.Err = err
		g.logger.Warn("persisted planner state is corrupted, falling back to defaults",
			zap.String("key", g.cfg.Key),
			zap.Int("bytes", len(raw)),
			zap.Error(err),
		)
		if g.quarantine != nil {
			if qErr := g.quarantine.Quarantine(g.cfg.Key, raw, err); qErr != nil {
				g.logger.Error("failed to quarantine corrupted planner state", zap.String("key", g.cfg.Key), zap.Error(qErr))
			}
		}
		return g.seed(ctx, result)
	}

	result.Status = models.LoadStatusOK
	if changed {
		if err := g.Save(ctx, collection); err != nil {
			return models.Collection{}, result, err
		}
	}
	g.metrics.RecordLoad(result.Status)
	return collection, result, nil
}

func (g *CollectionGateway) seed(ctx context.Context, result models.LoadResult) (models.Collection, models.LoadResult, error) {
	collection := models.SeedCollection(g.cfg.SeedCourses)
	if err := g.Save(ctx, collection); err != nil {
		return models.Collection{}, result, err
	}
	result.Seeded = true
	g.metrics.RecordLoad(result.Status)
	return collection, result, nil
}

// Save serializes the collection and overwrites the key unconditionally.
func (g *CollectionGateway) Save(ctx context.Context, collection models.Collection) error {
	payload, err := Encode(collection)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode planner state")
	}

	start := time.Now()
	err = g.store.Set(ctx, g.cfg.Key, payload)
	g.metrics.ObserveStore("set", err, time.Since(start))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to persist planner state")
	}
	return nil
}

// Decode parses a blob carried by a change notification. Components missing an
// id get a fresh one.
func (g *CollectionGateway) Decode(raw []byte) (models.Collection, error) {
	collection, _, err := g.decode(raw)
	return collection, err
}

func (g *CollectionGateway) decode(raw []byte) (models.Collection, bool, error) {
	var collection models.Collection
	if err := json.Unmarshal(raw, &collection); err != nil {
		return models.Collection{}, false, fmt.Errorf("decode planner state: %w", err)
	}
	changed := collection.Normalize(g.newID)
	return collection, changed, nil
}

// Encode renders the persisted form of a collection.
func Encode(collection models.Collection) ([]byte, error) {
	return json.Marshal(collection)
}
