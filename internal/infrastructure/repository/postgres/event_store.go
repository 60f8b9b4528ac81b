package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
	qb "github.com/riskibarqy/predictions-league/internal/platform/querybuilder"
)

const (
	eventPollInterval  = 250 * time.Millisecond
	eventPollPageSize  = 256
	subscribeBufferLen = 64
)

// EventStore is the append-only log backed by the events table. The
// (stream_id, version) unique constraint is the optimistic-concurrency
// primitive: the second of two racing appends hits it and surfaces
// event.ErrConflict. Live subscriptions poll the global_seq tail.
type EventStore struct {
	db *sqlx.DB
}

func NewEventStore(db *sqlx.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Append(ctx context.Context, streamID string, expectedVersion int, events []event.Envelope) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var head int
	if err := tx.GetContext(ctx, &head, `SELECT COALESCE(MAX(version), 0) FROM events WHERE stream_id = $1`, streamID); err != nil {
		return fmt.Errorf("read stream head %s: %w", streamID, err)
	}
	if expectedVersion != event.AnyVersion && head != expectedVersion {
		return fmt.Errorf("%w: stream=%s head=%d expected=%d", event.ErrConflict, streamID, head, expectedVersion)
	}

	for i, env := range events {
		insert := eventInsertModel{
			StreamID:   streamID,
			Version:    head + i + 1,
			EventType:  string(env.Type),
			OccurredAt: env.OccurredAt.UTC(),
			Payload:    string(env.Payload),
		}
		query, args, err := qb.InsertModel("events", insert, "")
		if err != nil {
			return fmt.Errorf("build insert event query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: stream=%s version=%d", event.ErrConflict, streamID, insert.Version)
			}
			return fmt.Errorf("insert event %s: %w", env.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: stream=%s", event.ErrConflict, streamID)
		}
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func (s *EventStore) ReadStream(ctx context.Context, streamID string) ([]event.Envelope, error) {
	query, args, err := qb.Select("*").From("events").
		Where(qb.Eq("stream_id", streamID)).
		OrderBy("version").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build read stream query: %w", err)
	}

	var rows []eventTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("read stream %s: %w", streamID, err)
	}
	return envelopesFromModels(rows), nil
}

func (s *EventStore) ReadAll(ctx context.Context, fromSeq int64, limit int) ([]event.Envelope, error) {
	query, args, err := qb.Select("*").From("events").
		Where(qb.Expr("global_seq >= ?", fromSeq)).
		OrderBy("global_seq").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build read all query: %w", err)
	}

	var rows []eventTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("read log from %d: %w", fromSeq, err)
	}
	return envelopesFromModels(rows), nil
}

// Subscribe polls the log tail. A poll failure is transient: the next tick
// retries from the same position, so order and completeness are preserved.
func (s *EventStore) Subscribe(ctx context.Context) (<-chan event.Envelope, func()) {
	out := make(chan event.Envelope, subscribeBufferLen)
	stopped := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(stopped) })
	}

	go func() {
		defer close(out)

		last, err := s.maxGlobalSeq(ctx)
		if err != nil {
			// Deliver from the beginning; the consumer's replay guard
			// drops what it has already seen.
			last = 0
		}

		ticker := time.NewTicker(eventPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopped:
				return
			case <-ticker.C:
			}

			for {
				page, err := s.ReadAll(ctx, last+1, eventPollPageSize)
				if err != nil || len(page) == 0 {
					break
				}
				for _, env := range page {
					select {
					case out <- env:
						last = env.GlobalSeq
					case <-ctx.Done():
						return
					case <-stopped:
						return
					}
				}
				if len(page) < eventPollPageSize {
					break
				}
			}
		}
	}()

	return out, stop
}

func (s *EventStore) maxGlobalSeq(ctx context.Context) (int64, error) {
	var head int64
	if err := s.db.GetContext(ctx, &head, `SELECT COALESCE(MAX(global_seq), 0) FROM events`); err != nil {
		return 0, fmt.Errorf("read log head: %w", err)
	}
	return head, nil
}

func envelopesFromModels(rows []eventTableModel) []event.Envelope {
	out := make([]event.Envelope, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEnvelope())
	}
	return out
}
