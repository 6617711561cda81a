package repository

import (
	"context"
	"sync"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
)

// MemoryBlobHub is an in-process key-value substrate shared by several contexts.
// Every write is broadcast to the watchers of all contexts, including the writer.
type MemoryBlobHub struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[chan models.BlobChange]struct{}
}

// NewMemoryBlobHub constructs an empty hub.
func NewMemoryBlobHub() *MemoryBlobHub {
	return &MemoryBlobHub{
		data:     make(map[string][]byte),
		watchers: make(map[chan models.BlobChange]struct{}),
	}
}

// Open returns a repository view that tags its writes with origin.
func (h *MemoryBlobHub) Open(origin string) *MemoryBlobRepository {
	return &MemoryBlobRepository{hub: h, origin: origin}
}

// MemoryBlobRepository is one context's handle on a MemoryBlobHub.
type MemoryBlobRepository struct {
	hub    *MemoryBlobHub
	origin string
}

// Get returns a copy of the stored value or ErrBlobNotFound.
func (r *MemoryBlobRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.hub.mu.RLock()
	defer r.hub.mu.RUnlock()
	value, ok := r.hub.data[key]
	if !ok {
		return nil, appErrors.ErrBlobNotFound
	}
	return append([]byte(nil), value...), nil
}

// Set overwrites the key and notifies watchers.
func (r *MemoryBlobRepository) Set(_ context.Context, key string, value []byte) error {
	stored := append([]byte(nil), value...)
	r.hub.mu.Lock()
	r.hub.data[key] = stored
	change := models.BlobChange{Key: key, Origin: r.origin, Value: append([]byte(nil), stored...)}
	for ch := range r.hub.watchers {
		deliverLatest(ch, change)
	}
	r.hub.mu.Unlock()
	return nil
}

// deliverLatest queues change, evicting the oldest queued change when the buffer
// is full so a slow watcher always ends up with the most recent write.
// Callers hold the hub lock, so there is a single sender per channel.
func deliverLatest(ch chan models.BlobChange, change models.BlobChange) {
	for {
		select {
		case ch <- change:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Watch streams changes until ctx is cancelled. Slow consumers lose older notifications, never the latest.
func (r *MemoryBlobRepository) Watch(ctx context.Context) (<-chan models.BlobChange, error) {
	ch := make(chan models.BlobChange, 16)
	r.hub.mu.Lock()
	r.hub.watchers[ch] = struct{}{}
	r.hub.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.hub.mu.Lock()
		delete(r.hub.watchers, ch)
		close(ch)
		r.hub.mu.Unlock()
	}()
	return ch, nil
}

// Origin identifies the writer.
func (r *MemoryBlobRepository) Origin() string { return r.origin }

// Close is a no-op.
func (r *MemoryBlobRepository) Close() error { return nil }
