package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/MrTune/Sem-Planner/internal/models"
	appErrors "github.com/MrTune/Sem-Planner/pkg/errors"
)

const plannerStateSchema = `CREATE TABLE IF NOT EXISTS planner_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    origin TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`

// plannerState mirrors a planner_state row.
type plannerState struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	Origin    string    `db:"origin"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PostgresBlobRepository stores the collection blob in a single-row-per-key table
// and announces writes with NOTIFY. Notifications carry no value; watchers re-read.
type PostgresBlobRepository struct {
	db      *sqlx.DB
	dsn     string
	channel string
	origin  string
	logger  *zap.Logger
}

// NewPostgresBlobRepository constructs the repository. dsn is used only by Watch.
func NewPostgresBlobRepository(db *sqlx.DB, dsn, channel, origin string, logger *zap.Logger) *PostgresBlobRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresBlobRepository{db: db, dsn: dsn, channel: channel, origin: origin, logger: logger}
}

// EnsureSchema creates the backing table when missing.
func (r *PostgresBlobRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, plannerStateSchema); err != nil {
		return fmt.Errorf("create planner_state: %w", err)
	}
	return nil
}

// Get returns the stored blob or ErrBlobNotFound.
func (r *PostgresBlobRepository) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT key, value, origin, updated_at FROM planner_state WHERE key = $1`
	var row plannerState
	if err := r.db.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrBlobNotFound
		}
		return nil, fmt.Errorf("get planner_state %s: %w", key, err)
	}
	return []byte(row.Value), nil
}

// Set upserts the blob and notifies listeners when the transaction commits.
func (r *PostgresBlobRepository) Set(ctx context.Context, key string, value []byte) error {
	const upsert = `INSERT INTO planner_state (key, value, origin, updated_at)
VALUES (:key, :value, :origin, :updated_at)
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, origin = EXCLUDED.origin, updated_at = EXCLUDED.updated_at`

	payload, err := encodeChange(models.BlobChange{Key: key, Origin: r.origin})
	if err != nil {
		return fmt.Errorf("encode change for %s: %w", key, err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin planner_state tx: %w", err)
	}
	row := plannerState{Key: key, Value: string(value), Origin: r.origin, UpdatedAt: time.Now().UTC()}
	if _, err := tx.NamedExecContext(ctx, upsert, row); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert planner_state %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, r.channel, string(payload)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("notify planner_state %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit planner_state tx: %w", err)
	}
	return nil
}

// Watch LISTENs on the change channel through a dedicated lib/pq listener.
func (r *PostgresBlobRepository) Watch(ctx context.Context) (<-chan models.BlobChange, error) {
	listener := pq.NewListener(r.dsn, 5*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Warn("postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(r.channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", r.channel, err)
	}

	out := make(chan models.BlobChange, 16)
	go func() {
		defer close(out)
		defer listener.Close() //nolint:errcheck
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-listener.Notify:
				if !ok {
					return
				}
				var change models.BlobChange
				if n != nil {
					decoded, err := decodeChange(n.Extra)
					if err != nil {
						r.logger.Warn("ignoring malformed change notification", zap.String("channel", n.Channel), zap.Error(err))
						continue
					}
					change = decoded
				}
				// a nil notification means the listener reconnected and may have missed writes;
				// the empty change asks the watcher to resync.
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
func (r *PostgresBlobRepository) Origin() string { return r.origin }

// Close releases the database handle.
func (r *PostgresBlobRepository) Close() error {
	return r.db.Close()
}
