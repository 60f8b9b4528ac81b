package postgres

import (
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
)

type eventTableModel struct {
	GlobalSeq  int64     `db:"global_seq"`
	StreamID   string    `db:"stream_id"`
	Version    int       `db:"version"`
	EventType  string    `db:"event_type"`
	OccurredAt time.Time `db:"occurred_at"`
	Payload    []byte    `db:"payload"`
	RecordedAt time.Time `db:"recorded_at"`
}

type eventInsertModel struct {
	StreamID   string    `db:"stream_id"`
	Version    int       `db:"version"`
	EventType  string    `db:"event_type"`
	OccurredAt time.Time `db:"occurred_at"`
	Payload    string    `db:"payload"`
}

func (m eventTableModel) toEnvelope() event.Envelope {
	return event.Envelope{
		GlobalSeq:  m.GlobalSeq,
		StreamID:   m.StreamID,
		Version:    m.Version,
		Type:       event.Type(m.EventType),
		OccurredAt: m.OccurredAt.UTC(),
		Payload:    m.Payload,
	}
}
