package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/player"
	"github.com/riskibarqy/predictions-league/internal/domain/prediction"
	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
)

// Record handlers keep the structural read records in step with the log.
// They always run first in an event's handler list so the document handlers
// behind them see current records.

func (s *ProjectionService) applyFixtureSetCreatedRecords(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureSetCreated](env)
	if err != nil {
		return err
	}

	set := fixtureset.FixtureSet{ID: payload.FixtureSetID, Gameweek: payload.Gameweek}
	if err := s.fixtureSets.UpsertFixtureSet(ctx, set); err != nil {
		return fmt.Errorf("upsert fixture set %s: %w", payload.FixtureSetID, err)
	}

	for _, seed := range payload.Fixtures {
		fixture := fixtureset.Fixture{
			ID:           seed.FixtureID,
			FixtureSetID: payload.FixtureSetID,
			Gameweek:     payload.Gameweek,
			HomeTeam:     seed.HomeTeam,
			AwayTeam:     seed.AwayTeam,
			KickoffAt:    seed.KickoffAt,
			SortOrder:    seed.SortOrder,
			State:        fixtureset.StateOpen,
		}
		if err := s.fixtureSets.UpsertFixture(ctx, fixture); err != nil {
			return fmt.Errorf("upsert fixture %s: %w", seed.FixtureID, err)
		}
	}
	return nil
}

func (s *ProjectionService) applyFixtureAddedRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureAdded](env)
	if err != nil {
		return err
	}

	set, found, err := s.fixtureSets.GetFixtureSet(ctx, payload.FixtureSetID)
	if err != nil {
		return fmt.Errorf("get fixture set %s: %w", payload.FixtureSetID, err)
	}
	if !found {
		return fmt.Errorf("fixture set %s not projected", payload.FixtureSetID)
	}

	fixture := fixtureset.Fixture{
		ID:           payload.FixtureID,
		FixtureSetID: payload.FixtureSetID,
		Gameweek:     set.Gameweek,
		HomeTeam:     payload.HomeTeam,
		AwayTeam:     payload.AwayTeam,
		KickoffAt:    payload.KickoffAt,
		SortOrder:    payload.SortOrder,
		State:        fixtureset.StateOpen,
	}
	if err := s.fixtureSets.UpsertFixture(ctx, fixture); err != nil {
		return fmt.Errorf("upsert fixture %s: %w", payload.FixtureID, err)
	}
	return nil
}

func (s *ProjectionService) applyFixtureRemovedRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureRemoved](env)
	if err != nil {
		return err
	}
	if err := s.fixtureSets.DeleteFixture(ctx, payload.FixtureID); err != nil {
		return fmt.Errorf("delete fixture %s: %w", payload.FixtureID, err)
	}
	return nil
}

func (s *ProjectionService) applyKickOffEditedRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureKickOffEdited](env)
	if err != nil {
		return err
	}

	fixture, found, err := s.fixtureSets.GetFixture(ctx, payload.FixtureID)
	if err != nil {
		return fmt.Errorf("get fixture %s: %w", payload.FixtureID, err)
	}
	if !found {
		return fmt.Errorf("fixture %s not projected", payload.FixtureID)
	}

	fixture.KickoffAt = payload.KickoffAt
	if err := s.fixtureSets.UpsertFixture(ctx, fixture); err != nil {
		return fmt.Errorf("upsert fixture %s: %w", payload.FixtureID, err)
	}
	return nil
}

func (s *ProjectionService) applyFixtureKickedOffRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureKickedOff](env)
	if err != nil {
		return err
	}

	fixture, found, err := s.fixtureSets.GetFixture(ctx, payload.FixtureID)
	if err != nil {
		return fmt.Errorf("get fixture %s: %w", payload.FixtureID, err)
	}
	if !found {
		return fmt.Errorf("fixture %s not projected", payload.FixtureID)
	}

	fixture.State = fixtureset.StateKickedOff
	if err := s.fixtureSets.UpsertFixture(ctx, fixture); err != nil {
		return fmt.Errorf("upsert fixture %s: %w", payload.FixtureID, err)
	}
	return nil
}

func (s *ProjectionService) applyFixtureClassifiedRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureClassified](env)
	if err != nil {
		return err
	}

	fixture, found, err := s.fixtureSets.GetFixture(ctx, payload.FixtureID)
	if err != nil {
		return fmt.Errorf("get fixture %s: %w", payload.FixtureID, err)
	}
	if !found {
		return fmt.Errorf("fixture %s not projected", payload.FixtureID)
	}

	result := payload.Result
	fixture.State = fixtureset.StateClassified
	fixture.Result = &result
	if err := s.fixtureSets.UpsertFixture(ctx, fixture); err != nil {
		return fmt.Errorf("upsert fixture %s: %w", payload.FixtureID, err)
	}
	return nil
}

func (s *ProjectionService) applyFixtureSetConcludedRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureSetConcluded](env)
	if err != nil {
		return err
	}

	set, found, err := s.fixtureSets.GetFixtureSet(ctx, payload.FixtureSetID)
	if err != nil {
		return fmt.Errorf("get fixture set %s: %w", payload.FixtureSetID, err)
	}
	if !found {
		return fmt.Errorf("fixture set %s not projected", payload.FixtureSetID)
	}

	set.Concluded = true
	if err := s.fixtureSets.UpsertFixtureSet(ctx, set); err != nil {
		return fmt.Errorf("upsert fixture set %s: %w", payload.FixtureSetID, err)
	}
	return nil
}

func (s *ProjectionService) applyPredictionEnteredRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.PredictionEntered](env)
	if err != nil {
		return err
	}

	// Re-entering a score keeps a previously staked double-down.
	existing, found, err := s.predictions.GetPrediction(ctx, payload.PlayerID, payload.FixtureID)
	if err != nil {
		return fmt.Errorf("get prediction %s/%s: %w", payload.PlayerID, payload.FixtureID, err)
	}

	pred := prediction.Prediction{
		PlayerID:     payload.PlayerID,
		FixtureSetID: payload.FixtureSetID,
		FixtureID:    payload.FixtureID,
		Score:        payload.Score,
		DoubleDown:   found && existing.DoubleDown,
		EnteredAt:    env.OccurredAt,
	}
	if err := s.predictions.UpsertPrediction(ctx, pred); err != nil {
		return fmt.Errorf("upsert prediction %s/%s: %w", payload.PlayerID, payload.FixtureID, err)
	}
	return nil
}

func (s *ProjectionService) applyDoubleDownAppliedRecords(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.DoubleDownApplied](env)
	if err != nil {
		return err
	}

	if payload.PreviousFixtureID != "" {
		previous, found, err := s.predictions.GetPrediction(ctx, payload.PlayerID, payload.PreviousFixtureID)
		if err != nil {
			return fmt.Errorf("get prediction %s/%s: %w", payload.PlayerID, payload.PreviousFixtureID, err)
		}
		if found {
			previous.DoubleDown = false
			if err := s.predictions.UpsertPrediction(ctx, previous); err != nil {
				return fmt.Errorf("upsert prediction %s/%s: %w", payload.PlayerID, payload.PreviousFixtureID, err)
			}
		}
	}

	target, found, err := s.predictions.GetPrediction(ctx, payload.PlayerID, payload.FixtureID)
	if err != nil {
		return fmt.Errorf("get prediction %s/%s: %w", payload.PlayerID, payload.FixtureID, err)
	}
	if !found {
		return fmt.Errorf("prediction %s/%s not projected", payload.PlayerID, payload.FixtureID)
	}

	target.DoubleDown = true
	if err := s.predictions.UpsertPrediction(ctx, target); err != nil {
		return fmt.Errorf("upsert prediction %s/%s: %w", payload.PlayerID, payload.FixtureID, err)
	}
	return nil
}

func (s *ProjectionService) applyPredictionsOverwrittenRecords(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.PredictionsOverwritten](env)
	if err != nil {
		return err
	}

	preds := make([]prediction.Prediction, 0, len(payload.Predictions))
	for _, seed := range payload.Predictions {
		preds = append(preds, prediction.Prediction{
			PlayerID:     payload.PlayerID,
			FixtureSetID: payload.FixtureSetID,
			FixtureID:    seed.FixtureID,
			Score:        seed.Score,
			DoubleDown:   seed.DoubleDown,
			EnteredAt:    env.OccurredAt,
		})
	}
	if err := s.predictions.ReplaceSet(ctx, payload.PlayerID, payload.FixtureSetID, preds); err != nil {
		return fmt.Errorf("replace predictions %s/%s: %w", payload.PlayerID, payload.FixtureSetID, err)
	}
	return nil
}

func (s *ProjectionService) applyLeagueCreatedRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.LeagueCreated](env)
	if err != nil {
		return err
	}

	league := privateleague.League{
		ID:      payload.LeagueID,
		Name:    payload.Name,
		OwnerID: payload.OwnerID,
		Members: []string{payload.OwnerID},
	}
	if err := s.leagues.UpsertLeague(ctx, league); err != nil {
		return fmt.Errorf("upsert league %s: %w", payload.LeagueID, err)
	}
	return nil
}

func (s *ProjectionService) applyLeagueJoinedRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.LeagueJoined](env)
	if err != nil {
		return err
	}
	if err := s.leagues.AddMember(ctx, payload.LeagueID, payload.PlayerID); err != nil {
		return fmt.Errorf("add league member %s/%s: %w", payload.LeagueID, payload.PlayerID, err)
	}
	return nil
}

func (s *ProjectionService) applyLeagueLeftRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.LeagueLeft](env)
	if err != nil {
		return err
	}
	if err := s.leagues.RemoveMember(ctx, payload.LeagueID, payload.PlayerID); err != nil {
		return fmt.Errorf("remove league member %s/%s: %w", payload.LeagueID, payload.PlayerID, err)
	}
	return nil
}

func (s *ProjectionService) applyPlayerRegisteredRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.PlayerRegistered](env)
	if err != nil {
		return err
	}

	registered := player.Player{ID: payload.PlayerID, Name: payload.Name}
	if err := s.players.UpsertPlayer(ctx, registered); err != nil {
		return fmt.Errorf("upsert player %s: %w", payload.PlayerID, err)
	}
	return nil
}

func (s *ProjectionService) applyPlayerSubscribedRecord(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.PlayerSubscribed](env)
	if err != nil {
		return err
	}

	sub := player.Subscription{Endpoint: payload.Endpoint, Auth: payload.Auth, P256DH: payload.P256DH}
	if err := s.players.AddSubscription(ctx, payload.PlayerID, sub); err != nil {
		return fmt.Errorf("add subscription %s: %w", payload.PlayerID, err)
	}
	return nil
}
