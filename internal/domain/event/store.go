package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrConflict reports an append whose expected version no longer matches the
// stream head. It marks a lost race, not corruption: callers re-read the
// stream and decide again.
var ErrConflict = errors.New("event: stream version conflict")

// AnyVersion skips the optimistic concurrency check on append.
const AnyVersion = -1

// Store is the append-only event log.
//
// Append writes events atomically to one stream. expectedVersion is the
// stream version the caller observed (0 for a new stream); a mismatch fails
// the whole batch with ErrConflict. ReadAll pages the full log in GlobalSeq
// order. Subscribe delivers post-subscription appends in GlobalSeq order on
// an unshared channel; the returned cancel detaches the subscriber.
type Store interface {
	Append(ctx context.Context, streamID string, expectedVersion int, events []Envelope) error
	ReadStream(ctx context.Context, streamID string) ([]Envelope, error)
	ReadAll(ctx context.Context, fromSeq int64, limit int) ([]Envelope, error)
	Subscribe(ctx context.Context) (<-chan Envelope, func())
}

const (
	streamPrefixFixtureSet  = "fixtureset"
	streamPrefixPredictions = "predictions"
	streamPrefixLeague      = "league"
	streamPrefixPlayer      = "player"
)

func FixtureSetStreamID(fixtureSetID string) string {
	return streamPrefixFixtureSet + "-" + fixtureSetID
}

func PredictionStreamID(playerID, fixtureSetID string) string {
	return streamPrefixPredictions + "-" + playerID + "-" + fixtureSetID
}

func LeagueStreamID(leagueID string) string {
	return streamPrefixLeague + "-" + leagueID
}

func PlayerStreamID(playerID string) string {
	return streamPrefixPlayer + "-" + playerID
}

// SplitPredictionStreamID recovers (playerID, fixtureSetID). IDs are opaque
// hex and never contain the separator.
func SplitPredictionStreamID(streamID string) (string, string, error) {
	parts := strings.Split(streamID, "-")
	if len(parts) != 3 || parts[0] != streamPrefixPredictions || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed prediction stream id %q", streamID)
	}
	return parts[1], parts[2], nil
}
