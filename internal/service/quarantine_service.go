package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/pkg/jobs"
)

const quarantineJobType = "quarantine_blob"

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

type quarantineStorage interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// QuarantineConfig tunes the background writer.
type QuarantineConfig struct {
	Retention  time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

type quarantinePayload struct {
	Key   string
	Raw   []byte
	Cause string
	At    time.Time
}

// quarantineRecord is the on-disk form. Raw is kept as a string since it is
// by definition not valid planner JSON.
type quarantineRecord struct {
	Key           string    `json:"key"`
	Cause         string    `json:"cause"`
	QuarantinedAt time.Time `json:"quarantined_at"`
	Raw           string    `json:"raw"`
}

// QuarantineService keeps a copy of every corrupted blob before the gateway overwrites it.
type QuarantineService struct {
	storage   quarantineStorage
	queue     *jobs.Queue
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewQuarantineService wires the writer onto a single-worker retrying queue.
func NewQuarantineService(storage quarantineStorage, cfg QuarantineConfig, metrics *MetricsService, logger *zap.Logger) *QuarantineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &QuarantineService{
		storage:   storage,
		retention: cfg.Retention,
		logger:    logger,
		now:       time.Now,
	}
	svc.queue = jobs.NewQueue("quarantine", svc.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 16,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Observer: func(_ jobs.Job, err error) {
			metrics.RecordQuarantine(err)
		},
		Logger: logger,
	})
	return svc
}

// Start launches the worker.
func (s *QuarantineService) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop waits for the worker to exit.
func (s *QuarantineService) Stop() { s.queue.Stop() }

// Quarantine schedules raw to be written out. The bytes are copied.
func (s *QuarantineService) Quarantine(key string, raw []byte, cause error) error {
	payload := quarantinePayload{
		Key: key,
		Raw: append([]byte(nil), raw...),
		At:  s.now().UTC(),
	}
	if cause != nil {
		payload.Cause = cause.Error()
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    quarantineJobType,
		Payload: payload,
	})
}

func (s *QuarantineService) handle(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(quarantinePayload)
	if !ok {
		return fmt.Errorf("unexpected quarantine payload %T", job.Payload)
	}

	body, err := json.MarshalIndent(quarantineRecord{
		Key:           payload.Key,
		Cause:         payload.Cause,
		QuarantinedAt: payload.At,
		Raw:           string(payload.Raw),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quarantine record: %w", err)
	}

	name := quarantineFilename(payload.Key, payload.At, job.ID)
	if _, err := s.storage.Save(name, body); err != nil {
		return err
	}
	s.logger.Info("corrupted planner state quarantined", zap.String("key", payload.Key), zap.String("file", name))

	if s.retention > 0 {
		deleted, err := s.storage.CleanupOlderThan(s.retention)
		if err != nil {
			s.logger.Warn("quarantine cleanup failed", zap.Error(err))
		} else if len(deleted) > 0 {
			s.logger.Info("quarantine cleanup", zap.Int("deleted", len(deleted)))
		}
	}
	return nil
}

func quarantineFilename(key string, at time.Time, jobID string) string {
	dir := unsafeKeyChars.ReplaceAllString(key, "_")
	if dir == "" || dir == "." || dir == ".." {
		dir = "blob"
	}
	suffix := jobID
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s/%s-%s.json", dir, at.UTC().Format("20060102T150405Z"), suffix)
}
