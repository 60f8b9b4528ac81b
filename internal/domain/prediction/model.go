package prediction

import (
	"errors"
	"sort"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/points"
	"github.com/riskibarqy/predictions-league/internal/domain/scoring"
)

var (
	ErrFixtureNotInSet    = errors.New("fixture not part of the fixture set")
	ErrFixtureLocked      = errors.New("fixture has kicked off, prediction locked")
	ErrNoPrediction       = errors.New("no prediction entered for fixture")
	ErrDoubleDownLocked   = errors.New("double down is staked on a kicked-off fixture")
	ErrSetLocked          = errors.New("fixture set already underway")
	ErrNothingToOverwrite = errors.New("source player has no predictions for the set")
)

// Prediction is one player's score call on one fixture.
type Prediction struct {
	PlayerID     string
	FixtureSetID string
	FixtureID    string
	Score        points.ScoreLine
	DoubleDown   bool
	EnteredAt    time.Time
}

// PredictionSet is the aggregate state for one (player, fixture set) pair.
// The stream starts implicitly with the first entered prediction.
type PredictionSet struct {
	PlayerID            string
	FixtureSetID        string
	Predictions         map[string]Prediction
	DoubleDownFixtureID string
	Version             int
}

func NewPredictionSet(playerID, fixtureSetID string) PredictionSet {
	return PredictionSet{
		PlayerID:     playerID,
		FixtureSetID: fixtureSetID,
		Predictions:  map[string]Prediction{},
	}
}

// For returns the scoring input for a fixture, nil when the player never
// predicted it.
func (ps PredictionSet) For(fixtureID string) *scoring.Prediction {
	pred, ok := ps.Predictions[fixtureID]
	if !ok {
		return nil
	}
	return &scoring.Prediction{Score: pred.Score, DoubleDown: pred.DoubleDown}
}

// List returns predictions in a stable fixture-id order.
func (ps PredictionSet) List() []Prediction {
	out := make([]Prediction, 0, len(ps.Predictions))
	for _, pred := range ps.Predictions {
		out = append(out, pred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FixtureID < out[j].FixtureID })
	return out
}
