package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
)

// changeMessage is the notification payload published after every write.
type changeMessage struct {
	Key    string `json:"key"`
	Origin string `json:"origin"`
	Value  string `json:"value,omitempty"`
}

func encodeChange(change models.BlobChange) ([]byte, error) {
	return json.Marshal(changeMessage{Key: change.Key, Origin: change.Origin, Value: string(change.Value)})
}

func decodeChange(payload string) (models.BlobChange, error) {
	var msg changeMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return models.BlobChange{}, fmt.Errorf("decode change notification: %w", err)
	}
	if msg.Key == "" {
		return models.BlobChange{}, fmt.Errorf("change notification without key")
	}
	change := models.BlobChange{Key: msg.Key, Origin: msg.Origin}
	if msg.Value != "" {
		change.Value = []byte(msg.Value)
	}
	return change, nil
}

// RedisBlobRepository keeps the collection blob in a Redis string and announces writes on a pub/sub channel.
type RedisBlobRepository struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

// NewRedisBlobRepository constructs the repository.
func NewRedisBlobRepository(client *redis.Client, channel, origin string, logger *zap.Logger) *RedisBlobRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBlobRepository{client: client, channel: channel, origin: origin, logger: logger}
}

// Get returns the stored blob or ErrBlobNotFound.
func (r *RedisBlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrBlobNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Set overwrites the key and publishes the change in the same MULTI block.
func (r *RedisBlobRepository) Set(ctx context.Context, key string, value []byte) error {
	payload, err := encodeChange(models.BlobChange{Key: key, Origin: r.origin, Value: value})
	if err != nil {
		return fmt.Errorf("encode change for %s: %w", key, err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, 0)
		pipe.Publish(ctx, r.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Watch subscribes to the change channel until ctx is cancelled.
func (r *RedisBlobRepository) Watch(ctx context.Context) (<-chan models.BlobChange, error) {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}

	out := make(chan models.BlobChange, 16)
	go func() {
		defer close(out)
		defer sub.Close() //nolint:errcheck
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change, err := decodeChange(msg.Payload)
				if err != nil {
					r.logger.Warn("ignoring malformed change notification", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Origin identifies the writer.
func (r *RedisBlobRepository) Origin() string { return r.origin }

// Close releases the underlying Redis connection.
func (r *RedisBlobRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
