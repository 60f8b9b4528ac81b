package event

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// Type names follow <aggregate>.<fact> and never change once written: the
// log is the system of record and old events must stay decodable.
type Type string

const (
	TypeFixtureSetCreated      Type = "fixtureset.created"
	TypeFixtureAdded           Type = "fixtureset.fixture_added"
	TypeFixtureRemoved         Type = "fixtureset.fixture_removed"
	TypeFixtureKickOffEdited   Type = "fixtureset.kickoff_edited"
	TypeFixtureKickedOff       Type = "fixtureset.fixture_kicked_off"
	TypeFixtureClassified      Type = "fixtureset.fixture_classified"
	TypeFixtureSetConcluded    Type = "fixtureset.concluded"
	TypePredictionEntered      Type = "predictions.entered"
	TypeDoubleDownApplied      Type = "predictions.double_down_applied"
	TypePredictionsOverwritten Type = "predictions.overwritten"
	TypeLeagueCreated          Type = "league.created"
	TypeLeagueJoined           Type = "league.joined"
	TypeLeagueLeft             Type = "league.left"
	TypePlayerRegistered       Type = "player.registered"
	TypePlayerSubscribed       Type = "player.subscribed"
)

// Envelope wraps one event as stored. Version is 1-based within a stream;
// GlobalSeq is assigned by the store on append and totally orders the log.
type Envelope struct {
	GlobalSeq  int64     `json:"globalSeq"`
	StreamID   string    `json:"streamId"`
	Version    int       `json:"version"`
	Type       Type      `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    []byte    `json:"payload"`
}

// New builds an envelope for appending. GlobalSeq and Version are zero until
// the store assigns them.
func New(streamID string, eventType Type, occurredAt time.Time, payload any) (Envelope, error) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		StreamID:   streamID,
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
		Payload:    raw,
	}, nil
}

// Decode unmarshals an envelope payload into the given payload type.
func Decode[T any](env Envelope) (T, error) {
	var payload T
	if err := sonic.Unmarshal(env.Payload, &payload); err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return payload, nil
}
