package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/internal/models"
)

type changeSource interface {
	Watch(ctx context.Context) (<-chan models.BlobChange, error)
	Origin() string
}

type externalApplier interface {
	ApplyExternal(ctx context.Context, change models.BlobChange) error
}

// ChangeWatcher reloads the planner whenever another context writes its key.
type ChangeWatcher struct {
	source  changeSource
	planner externalApplier
	key     string
	logger  *zap.Logger

	changes <-chan models.BlobChange
}

// NewChangeWatcher constructs a watcher for key.
func NewChangeWatcher(source changeSource, planner externalApplier, key string, logger *zap.Logger) *ChangeWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeWatcher{source: source, planner: planner, key: key, logger: logger}
}

// Subscribe opens the change stream. Call it before the initial load so no
// write between that load and Run is missed; ctx bounds the subscription.
func (w *ChangeWatcher) Subscribe(ctx context.Context) error {
	if w.changes != nil {
		return nil
	}
	changes, err := w.source.Watch(ctx)
	if err != nil {
		return err
	}
	w.changes = changes
	return nil
}

// Run blocks until ctx is cancelled or the source closes its channel. It
// subscribes first when Subscribe has not been called.
func (w *ChangeWatcher) Run(ctx context.Context) error {
	if err := w.Subscribe(ctx); err != nil {
		return err
	}
	changes := w.changes
	origin := w.source.Origin()
	w.logger.Info("watching planner state", zap.String("key", w.key), zap.String("origin", origin))

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if !w.relevant(change, origin) {
				continue
			}
			if err := w.planner.ApplyExternal(ctx, change); err != nil {
				w.logger.Error("failed to apply external change",
					zap.String("key", change.Key),
					zap.String("origin", change.Origin),
					zap.Error(err),
				)
			}
		}
	}
}

// relevant drops our own writes and writes to other keys. An empty key is a resync.
func (w *ChangeWatcher) relevant(change models.BlobChange, origin string) bool {
	if change.Key == "" {
		return true
	}
	if change.Key != w.key {
		return false
	}
	return change.Origin == "" || change.Origin != origin
}
