package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
	"github.com/riskibarqy/predictions-league/internal/domain/scoring"
)

// fixtureSetRef decodes just the fixture set identity out of any
// fixtureset.* payload.
type fixtureSetRef struct {
	FixtureSetID string `json:"fixtureSetId"`
}

// leagueRef decodes just the league identity out of any league.* payload.
type leagueRef struct {
	LeagueID string `json:"leagueId"`
}

// applyFixtureSetMatrices rebuilds the gameweek matrix of every league from
// the current records. Rebuilding beats patching here: the same builder
// serves creation, fixture edits, kickoff reveals and classification scores,
// and replaying it is idempotent by construction.
func (s *ProjectionService) applyFixtureSetMatrices(ctx context.Context, env event.Envelope) error {
	ref, err := event.Decode[fixtureSetRef](env)
	if err != nil {
		return err
	}
	return s.rebuildMatricesForSet(ctx, ref.FixtureSetID, env.OccurredAt)
}

// applyLeagueMatrices builds a league's matrices for every unconcluded
// fixture set. Runs when a league appears or its membership grows; concluded
// gameweeks keep their historical roster.
func (s *ProjectionService) applyLeagueMatrices(ctx context.Context, env event.Envelope) error {
	ref, err := event.Decode[leagueRef](env)
	if err != nil {
		return err
	}

	league, found, err := s.leagues.GetLeague(ctx, ref.LeagueID)
	if err != nil {
		return fmt.Errorf("get league %s: %w", ref.LeagueID, err)
	}
	if !found {
		return fmt.Errorf("league %s not projected", ref.LeagueID)
	}

	sets, err := s.fixtureSets.ListFixtureSets(ctx)
	if err != nil {
		return fmt.Errorf("list fixture sets: %w", err)
	}
	_, names, err := s.playerDirectory(ctx)
	if err != nil {
		return err
	}

	for _, set := range sets {
		if set.Concluded {
			continue
		}
		if err := s.rebuildMatrix(ctx, league.ID, league.Members, set, names, env.OccurredAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectionService) rebuildMatricesForSet(ctx context.Context, fixtureSetID string, at time.Time) error {
	set, found, err := s.fixtureSets.GetFixtureSet(ctx, fixtureSetID)
	if err != nil {
		return fmt.Errorf("get fixture set %s: %w", fixtureSetID, err)
	}
	if !found {
		return fmt.Errorf("fixture set %s not projected", fixtureSetID)
	}

	leagues, err := s.leagues.ListLeagues(ctx)
	if err != nil {
		return fmt.Errorf("list leagues: %w", err)
	}
	allPlayers, names, err := s.playerDirectory(ctx)
	if err != nil {
		return err
	}

	if err := s.rebuildMatrix(ctx, privateleague.GlobalLeagueID, allPlayers, set, names, at); err != nil {
		return err
	}
	for _, league := range leagues {
		if err := s.rebuildMatrix(ctx, league.ID, league.Members, set, names, at); err != nil {
			return err
		}
	}
	return nil
}

// rebuildMatrix derives one (league, gameweek) matrix from records. Cells
// stay hidden while their fixture is open; kickoff reveals the prediction and
// classification prices it.
func (s *ProjectionService) rebuildMatrix(
	ctx context.Context,
	leagueID string,
	memberIDs []string,
	set fixtureset.FixtureSet,
	names map[string]string,
	at time.Time,
) error {
	fixtures := set.SortedFixtures()

	cols := make([]document.MatrixFixture, 0, len(fixtures))
	for _, fixture := range fixtures {
		col := document.MatrixFixture{
			FixtureID: fixture.ID,
			HomeTeam:  fixture.HomeTeam,
			AwayTeam:  fixture.AwayTeam,
			KickoffAt: fixture.KickoffAt,
			SortOrder: fixture.SortOrder,
			State:     fixture.State,
		}
		if fixture.Result != nil {
			result := *fixture.Result
			col.Result = &result
		}
		cols = append(cols, col)
	}

	rows := make([]document.MatrixPlayer, 0, len(memberIDs))
	for _, playerID := range memberIDs {
		row := document.MatrixPlayer{
			PlayerID:    playerID,
			PlayerName:  names[playerID],
			Predictions: map[string]document.MatrixPrediction{},
		}
		for _, fixture := range fixtures {
			if fixture.State == fixtureset.StateOpen {
				continue
			}
			pred, found, err := s.predictions.GetPrediction(ctx, playerID, fixture.ID)
			if err != nil {
				return fmt.Errorf("get prediction %s/%s: %w", playerID, fixture.ID, err)
			}
			if !found {
				continue
			}

			cell := document.MatrixPrediction{Score: pred.Score, DoubleDown: pred.DoubleDown}
			if fixture.Result != nil {
				tally, _ := scoring.Score(*fixture.Result, &scoring.Prediction{Score: pred.Score, DoubleDown: pred.DoubleDown})
				pts := tally.Points
				cell.Points = &pts
				row.Total += pts
			}
			row.Predictions[fixture.ID] = cell
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PlayerName != rows[j].PlayerName {
			return rows[i].PlayerName < rows[j].PlayerName
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})

	doc := document.MatrixDoc{
		LeagueID:  leagueID,
		Gameweek:  set.Gameweek,
		Fixtures:  cols,
		Players:   rows,
		UpdatedAt: at,
	}
	return document.Save(ctx, s.documents, document.MatrixKey(leagueID, set.Gameweek), doc)
}

// playerDirectory returns every registered player id plus an id-to-name map.
func (s *ProjectionService) playerDirectory(ctx context.Context) ([]string, map[string]string, error) {
	players, err := s.players.ListPlayers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list players: %w", err)
	}

	ids := make([]string, 0, len(players))
	names := make(map[string]string, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
		names[p.ID] = p.Name
	}
	return ids, names, nil
}
