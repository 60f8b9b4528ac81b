package prediction

import (
	"fmt"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

// Fold replays a prediction stream for one (player, fixture set) pair.
func Fold(playerID, fixtureSetID string, events []event.Envelope) (PredictionSet, error) {
	ps := NewPredictionSet(playerID, fixtureSetID)
	for _, env := range events {
		if err := ps.apply(env); err != nil {
			return PredictionSet{}, err
		}
		ps.Version = env.Version
	}
	return ps, nil
}

func (ps *PredictionSet) apply(env event.Envelope) error {
	switch env.Type {
	case event.TypePredictionEntered:
		payload, err := event.Decode[event.PredictionEntered](env)
		if err != nil {
			return err
		}
		pred := ps.Predictions[payload.FixtureID]
		pred.PlayerID = ps.PlayerID
		pred.FixtureSetID = ps.FixtureSetID
		pred.FixtureID = payload.FixtureID
		pred.Score = payload.Score
		pred.EnteredAt = env.OccurredAt
		// Re-entering a score keeps a previously staked double-down.
		pred.DoubleDown = ps.DoubleDownFixtureID == payload.FixtureID
		ps.Predictions[payload.FixtureID] = pred
	case event.TypeDoubleDownApplied:
		payload, err := event.Decode[event.DoubleDownApplied](env)
		if err != nil {
			return err
		}
		if prev, ok := ps.Predictions[payload.PreviousFixtureID]; ok {
			prev.DoubleDown = false
			ps.Predictions[payload.PreviousFixtureID] = prev
		}
		if next, ok := ps.Predictions[payload.FixtureID]; ok {
			next.DoubleDown = true
			ps.Predictions[payload.FixtureID] = next
		}
		ps.DoubleDownFixtureID = payload.FixtureID
	case event.TypePredictionsOverwritten:
		payload, err := event.Decode[event.PredictionsOverwritten](env)
		if err != nil {
			return err
		}
		ps.Predictions = make(map[string]Prediction, len(payload.Predictions))
		ps.DoubleDownFixtureID = ""
		for _, seed := range payload.Predictions {
			ps.Predictions[seed.FixtureID] = Prediction{
				PlayerID:     ps.PlayerID,
				FixtureSetID: ps.FixtureSetID,
				FixtureID:    seed.FixtureID,
				Score:        seed.Score,
				DoubleDown:   seed.DoubleDown,
				EnteredAt:    env.OccurredAt,
			}
			if seed.DoubleDown {
				ps.DoubleDownFixtureID = seed.FixtureID
			}
		}
	}
	return nil
}

// Enter records or replaces the player's score call for one open fixture.
// Entering is a set operation: submitting the same fixture again overwrites.
func (ps PredictionSet) Enter(set fixtureset.FixtureSet, fixtureID string, score points.ScoreLine, now time.Time) ([]event.Envelope, error) {
	fixture, found := set.Fixture(fixtureID)
	if !found {
		return nil, ErrFixtureNotInSet
	}
	if fixture.State != fixtureset.StateOpen {
		return nil, ErrFixtureLocked
	}
	if err := score.Validate(); err != nil {
		return nil, err
	}

	env, err := event.New(ps.streamID(), event.TypePredictionEntered, now, event.PredictionEntered{
		PlayerID:     ps.PlayerID,
		FixtureSetID: ps.FixtureSetID,
		FixtureID:    fixtureID,
		Score:        score,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// ApplyDoubleDown stakes the set's single double-down on a fixture the
// player has predicted. Restaking the same fixture is a no-op; moving the
// flag requires both the old and the new fixture to still be open.
func (ps PredictionSet) ApplyDoubleDown(set fixtureset.FixtureSet, fixtureID string, now time.Time) ([]event.Envelope, error) {
	fixture, found := set.Fixture(fixtureID)
	if !found {
		return nil, ErrFixtureNotInSet
	}
	if _, predicted := ps.Predictions[fixtureID]; !predicted {
		return nil, ErrNoPrediction
	}
	if ps.DoubleDownFixtureID == fixtureID {
		return nil, nil
	}
	if fixture.State != fixtureset.StateOpen {
		return nil, ErrFixtureLocked
	}
	if ps.DoubleDownFixtureID != "" {
		prev, stillThere := set.Fixture(ps.DoubleDownFixtureID)
		if stillThere && prev.State != fixtureset.StateOpen {
			return nil, ErrDoubleDownLocked
		}
	}

	env, err := event.New(ps.streamID(), event.TypeDoubleDownApplied, now, event.DoubleDownApplied{
		PlayerID:          ps.PlayerID,
		FixtureSetID:      ps.FixtureSetID,
		FixtureID:         fixtureID,
		PreviousFixtureID: ps.DoubleDownFixtureID,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// Overwrite replaces this player's predictions with another player's set, an
// operator repair action. Only allowed while no fixture has kicked off.
func (ps PredictionSet) Overwrite(set fixtureset.FixtureSet, source PredictionSet, now time.Time) ([]event.Envelope, error) {
	if set.InPlay() {
		return nil, ErrSetLocked
	}
	if len(source.Predictions) == 0 {
		return nil, ErrNothingToOverwrite
	}

	seeds := make([]event.PredictionSeed, 0, len(source.Predictions))
	for _, pred := range source.List() {
		if _, inSet := set.Fixture(pred.FixtureID); !inSet {
			return nil, fmt.Errorf("source prediction for unknown fixture %s: %w", pred.FixtureID, ErrFixtureNotInSet)
		}
		seeds = append(seeds, event.PredictionSeed{
			FixtureID:  pred.FixtureID,
			Score:      pred.Score,
			DoubleDown: pred.DoubleDown,
		})
	}

	env, err := event.New(ps.streamID(), event.TypePredictionsOverwritten, now, event.PredictionsOverwritten{
		PlayerID:     ps.PlayerID,
		FixtureSetID: ps.FixtureSetID,
		SourcePlayer: source.PlayerID,
		Predictions:  seeds,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

func (ps PredictionSet) streamID() string {
	return event.PredictionStreamID(ps.PlayerID, ps.FixtureSetID)
}
