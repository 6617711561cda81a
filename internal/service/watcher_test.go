package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrTune/Sem-Planner/internal/models"
	"github.com/MrTune/Sem-Planner/internal/repository"
	"github.com/MrTune/Sem-Planner/pkg/clock"
)

type applierStub struct {
	mu      sync.Mutex
	changes []models.BlobChange
}

func (a *applierStub) ApplyExternal(_ context.Context, change models.BlobChange) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.changes = append(a.changes, change)
	return nil
}

func (a *applierStub) seen() []models.BlobChange {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.BlobChange(nil), a.changes...)
}

type channelSource struct {
	ch     chan models.BlobChange
	origin string
}

func (s channelSource) Watch(context.Context) (<-chan models.BlobChange, error) { return s.ch, nil }
func (s channelSource) Origin() string { return s.origin }

func TestChangeWatcherFiltersOwnWritesAndOtherKeys(t *testing.T) {
	src := channelSource{ch: make(chan models.BlobChange, 4), origin: "tab-a"}
	applier := &applierStub{}
	watcher := NewChangeWatcher(src, applier, testKey, nil)

	src.ch <- models.BlobChange{Key: testKey, Origin: "tab-a"}
	src.ch <- models.BlobChange{Key: "otherKey", Origin: "tab-b"}
	src.ch <- models.BlobChange{Key: testKey, Origin: "tab-b", Value: []byte(`{"courses":[]}`)}
	src.ch <- models.BlobChange{}
	close(src.ch)

	require.NoError(t, watcher.Run(context.Background()))

	seen := applier.seen()
	require.Len(t, seen, 2)
	assert.Equal(t, "tab-b", seen[0].Origin)
	assert.Equal(t, "", seen[1].Key)
}

func TestChangeWatcherSubscribeBeforeLoadKeepsEarlyWrites(t *testing.T) {
	hub := repository.NewMemoryBlobHub()
	storeA := hub.Open("tab-a")
	storeB := hub.Open("tab-b")
	applier := &applierStub{}
	watcher := NewChangeWatcher(storeA, applier, testKey, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Subscribe(ctx))

	// lands after subscription but before Run consumes anything
	require.NoError(t, storeB.Set(ctx, testKey, []byte(`{"courses":[]}`)))

	go func() { _ = watcher.Run(ctx) }()

	assert.Eventually(t, func() bool {
		seen := applier.seen()
		return len(seen) == 1 && seen[0].Origin == "tab-b"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestChangeWatcherStopsOnCancel(t *testing.T) {
	src := channelSource{ch: make(chan models.BlobChange), origin: "tab-a"}
	watcher := NewChangeWatcher(src, &applierStub{}, testKey, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestTwoContextsStayCoherent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := repository.NewMemoryBlobHub()
	storeA := hub.Open("tab-a")
	storeB := hub.Open("tab-b")

	plannerA := NewPlanner(newTestGateway(storeA, nil, nil), clock.Fixed(testNow), PlannerConfig{Location: time.UTC}, nil, nil, nil)
	plannerB := NewPlanner(newTestGateway(storeB, nil, nil), clock.Fixed(testNow), PlannerConfig{Location: time.UTC}, nil, nil, nil)

	_, err := plannerA.Load(ctx)
	require.NoError(t, err)
	_, err = plannerB.Load(ctx)
	require.NoError(t, err)

	watcherB := NewChangeWatcher(storeB, plannerB, testKey, nil)
	go func() { _ = watcherB.Run(ctx) }()

	// rewritten on every tick since the watcher may subscribe after the first write
	assert.Eventually(t, func() bool {
		if _, err := plannerA.SetCourseName(ctx, 1, RenameCourseRequest{Name: "Renamed in A"}); err != nil {
			return false
		}
		course, _, err := plannerB.Course(ctx, 1)
		return err == nil && course.Name == "Renamed in A"
	}, 2*time.Second, 20*time.Millisecond)
}
