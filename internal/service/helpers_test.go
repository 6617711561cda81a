package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
)

// today for every date-dependent test: Wednesday 15 May 2024.
var testToday = models.NewDate(2024, time.May, 15)

var testNow = time.Date(2024, time.May, 15, 10, 30, 0, 0, time.UTC)

func marks(v float64) *float64 { return &v }

func day(offset int) models.Date { return testToday.AddDays(offset) }

func sequence(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

type blobStoreStub struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func newBlobStoreStub() *blobStoreStub {
	return &blobStoreStub{data: make(map[string][]byte)}
}

func (s *blobStoreStub) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	value, ok := s.data[key]
	if !ok {
		return nil, appErrors.ErrBlobNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *blobStoreStub) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *blobStoreStub) raw(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data[key]...)
}

func (s *blobStoreStub) failSets(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}

type quarantineStub struct {
	key   string
	raw   []byte
	cause error
	calls int
}

func (q *quarantineStub) Quarantine(key string, raw []byte, cause error) error {
	q.calls++
	q.key = key
	q.raw = append([]byte(nil), raw...)
	q.cause = cause
	return nil
}
