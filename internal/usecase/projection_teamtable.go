package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/teamtable"
)

const actualTableScope = "actual"

// applyFixtureKickedOffPredictedTables refreshes the predicted football table
// of every player who locked in a prediction for the kicked-off fixture.
// Predicted tables treat each player's prediction as the full-time score.
func (s *ProjectionService) applyFixtureKickedOffPredictedTables(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureKickedOff](env)
	if err != nil {
		return err
	}

	preds, err := s.predictions.ListByFixture(ctx, payload.FixtureID)
	if err != nil {
		return fmt.Errorf("list predictions for fixture %s: %w", payload.FixtureID, err)
	}
	for _, pred := range preds {
		if err := s.rebuildPredictedTable(ctx, pred.PlayerID, env.OccurredAt); err != nil {
			return err
		}
	}
	return nil
}

// applyFixtureClassifiedActualTable refolds the real football table from
// every classified result.
func (s *ProjectionService) applyFixtureClassifiedActualTable(ctx context.Context, env event.Envelope) error {
	if _, err := event.Decode[event.FixtureClassified](env); err != nil {
		return err
	}

	fixtures, err := s.fixturesPastKickoff(ctx)
	if err != nil {
		return err
	}

	var results []teamtable.Result
	for _, fixture := range fixtures {
		if fixture.State != fixtureset.StateClassified || fixture.Result == nil {
			continue
		}
		results = append(results, teamtable.Result{
			HomeTeam: fixture.HomeTeam,
			AwayTeam: fixture.AwayTeam,
			Score:    *fixture.Result,
		})
	}

	doc := document.TeamTableDoc{
		Scope:     actualTableScope,
		Rows:      teamtable.Fold(results),
		UpdatedAt: env.OccurredAt,
	}
	return document.Save(ctx, s.documents, document.ActualTeamTableKey(), doc)
}

// rebuildPredictedTable folds one player's locked-in predictions, in kickoff
// order, into their private version of the football table.
func (s *ProjectionService) rebuildPredictedTable(ctx context.Context, playerID string, at time.Time) error {
	fixtures, err := s.fixturesPastKickoff(ctx)
	if err != nil {
		return err
	}

	var results []teamtable.Result
	for _, fixture := range fixtures {
		pred, found, err := s.predictions.GetPrediction(ctx, playerID, fixture.ID)
		if err != nil {
			return fmt.Errorf("get prediction %s/%s: %w", playerID, fixture.ID, err)
		}
		if !found {
			continue
		}
		results = append(results, teamtable.Result{
			HomeTeam: fixture.HomeTeam,
			AwayTeam: fixture.AwayTeam,
			Score:    pred.Score,
		})
	}

	doc := document.TeamTableDoc{
		Scope:     "predicted:" + playerID,
		Rows:      teamtable.Fold(results),
		UpdatedAt: at,
	}
	return document.Save(ctx, s.documents, document.PredictedTeamTableKey(playerID), doc)
}

// fixturesPastKickoff lists every fixture that has left the open state,
// ordered by kickoff. The order fixes the form string of folded tables.
func (s *ProjectionService) fixturesPastKickoff(ctx context.Context) ([]fixtureset.Fixture, error) {
	sets, err := s.fixtureSets.ListFixtureSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fixture sets: %w", err)
	}

	var out []fixtureset.Fixture
	for _, set := range sets {
		for _, fixture := range set.Fixtures {
			if fixture.State == fixtureset.StateOpen {
				continue
			}
			out = append(out, fixture)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
