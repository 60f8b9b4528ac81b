package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
	"github.com/riskibarqy/predictions-league/internal/domain/scoring"
	"github.com/riskibarqy/predictions-league/internal/domain/standings"
)

// applyFixtureClassifiedTables rebuilds every (league, window) table touched
// by the classified fixture: the whole season, the set's gameweek and the
// set's calendar month.
func (s *ProjectionService) applyFixtureClassifiedTables(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureClassified](env)
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

	for _, window := range windowsOf(set) {
		if err := s.rebuildLeagueTables(ctx, window, env.OccurredAt); err != nil {
			return err
		}
	}
	return nil
}

func windowsOf(set fixtureset.FixtureSet) []points.Window {
	windows := []points.Window{points.SeasonWindow(), points.GameweekWindow(set.Gameweek)}
	if month := set.Month(); month != "" {
		windows = append(windows, points.MonthWindow(month))
	}
	return windows
}

func (s *ProjectionService) rebuildLeagueTables(ctx context.Context, window points.Window, at time.Time) error {
	leagues, err := s.leagues.ListLeagues(ctx)
	if err != nil {
		return fmt.Errorf("list leagues: %w", err)
	}
	allPlayers, names, err := s.playerDirectory(ctx)
	if err != nil {
		return err
	}
	classified, err := s.classifiedFixtures(ctx, window)
	if err != nil {
		return err
	}

	if err := s.rebuildLeagueTable(ctx, privateleague.GlobalLeagueID, allPlayers, names, window, classified, at); err != nil {
		return err
	}
	for _, league := range leagues {
		if err := s.rebuildLeagueTable(ctx, league.ID, league.Members, names, window, classified, at); err != nil {
			return err
		}
	}
	return nil
}

// classifiedFixtures collects every classified fixture whose set falls inside
// the window.
func (s *ProjectionService) classifiedFixtures(ctx context.Context, window points.Window) ([]fixtureset.Fixture, error) {
	sets, err := s.fixtureSets.ListFixtureSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fixture sets: %w", err)
	}

	var out []fixtureset.Fixture
	for _, set := range sets {
		switch window.Kind {
		case points.WindowGameweek:
			if set.Gameweek != window.Gameweek {
				continue
			}
		case points.WindowMonth:
			if set.Month() != window.Month {
				continue
			}
		}
		for _, fixture := range set.Fixtures {
			if fixture.State == fixtureset.StateClassified && fixture.Result != nil {
				out = append(out, fixture)
			}
		}
	}
	return out, nil
}

// rebuildLeagueTable scores every member against the window's classified
// fixtures and ranks them. A member without a single prediction among those
// fixtures stays off the table; a member who predicted some fixtures still
// collects zero-point incorrects for the ones they skipped.
func (s *ProjectionService) rebuildLeagueTable(
	ctx context.Context,
	leagueID string,
	memberIDs []string,
	names map[string]string,
	window points.Window,
	classified []fixtureset.Fixture,
	at time.Time,
) error {
	entries := make([]standings.Entry, 0, len(memberIDs))
	for _, playerID := range memberIDs {
		var tally points.Tally
		predicted := 0
		for _, fixture := range classified {
			pred, found, err := s.predictions.GetPrediction(ctx, playerID, fixture.ID)
			if err != nil {
				return fmt.Errorf("get prediction %s/%s: %w", playerID, fixture.ID, err)
			}
			var scored *scoring.Prediction
			if found {
				predicted++
				scored = &scoring.Prediction{Score: pred.Score, DoubleDown: pred.DoubleDown}
			}
			fixtureTally, _ := scoring.Score(*fixture.Result, scored)
			tally = tally.Add(fixtureTally)
		}
		if predicted == 0 {
			continue
		}
		entries = append(entries, standings.Entry{PlayerID: playerID, PlayerName: names[playerID], Tally: tally})
	}

	doc := document.LeagueTableDoc{
		LeagueID:  leagueID,
		Window:    window.Key(),
		Label:     window.Label(),
		Rows:      standings.Rank(entries),
		UpdatedAt: at,
	}
	return document.Save(ctx, s.documents, document.LeagueTableKey(leagueID, window.Key()), doc)
}

// applyFixtureClassifiedSummaries rebuilds the fixture-set summary of every
// player holding at least one prediction in the set.
func (s *ProjectionService) applyFixtureClassifiedSummaries(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureClassified](env)
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

	playerIDs, err := s.playersWithPredictions(ctx, set)
	if err != nil {
		return err
	}
	for _, playerID := range playerIDs {
		if err := s.rebuildSummary(ctx, playerID, set, env.OccurredAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectionService) playersWithPredictions(ctx context.Context, set fixtureset.FixtureSet) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, fixture := range set.Fixtures {
		preds, err := s.predictions.ListByFixture(ctx, fixture.ID)
		if err != nil {
			return nil, fmt.Errorf("list predictions for fixture %s: %w", fixture.ID, err)
		}
		for _, pred := range preds {
			if !seen[pred.PlayerID] {
				seen[pred.PlayerID] = true
				out = append(out, pred.PlayerID)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// rebuildSummary derives one player's scored breakdown of one fixture set.
// Unclassified fixtures appear as pending rows and contribute nothing to the
// tally.
func (s *ProjectionService) rebuildSummary(ctx context.Context, playerID string, set fixtureset.FixtureSet, at time.Time) error {
	fixtures := set.SortedFixtures()
	rows := make([]document.SummaryRow, 0, len(fixtures))
	var tally points.Tally

	for _, fixture := range fixtures {
		row := document.SummaryRow{
			FixtureID: fixture.ID,
			HomeTeam:  fixture.HomeTeam,
			AwayTeam:  fixture.AwayTeam,
		}

		pred, found, err := s.predictions.GetPrediction(ctx, playerID, fixture.ID)
		if err != nil {
			return fmt.Errorf("get prediction %s/%s: %w", playerID, fixture.ID, err)
		}
		if found {
			predictedScore := pred.Score
			row.Predicted = &predictedScore
			row.DoubleDown = pred.DoubleDown
		}

		if fixture.Result != nil {
			result := *fixture.Result
			row.Result = &result

			var scored *scoring.Prediction
			if found {
				scored = &scoring.Prediction{Score: pred.Score, DoubleDown: pred.DoubleDown}
			}
			fixtureTally, category := scoring.Score(result, scored)
			row.Category = category
			row.Points = fixtureTally.Points
			tally = tally.Add(fixtureTally)
		}

		rows = append(rows, row)
	}

	doc := document.SummaryDoc{
		PlayerID:     playerID,
		FixtureSetID: set.ID,
		Gameweek:     set.Gameweek,
		Rows:         rows,
		Tally:        tally,
		UpdatedAt:    at,
	}
	return document.Save(ctx, s.documents, document.SummaryKey(playerID, set.ID), doc)
}

// applyFixtureClassifiedHistory lifts the current leaders of the set's
// gameweek and month tables into every league's history document.
func (s *ProjectionService) applyFixtureClassifiedHistory(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureClassified](env)
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

	windows := []points.Window{points.GameweekWindow(set.Gameweek)}
	if month := set.Month(); month != "" {
		windows = append(windows, points.MonthWindow(month))
	}

	leagueIDs, err := s.allLeagueIDs(ctx)
	if err != nil {
		return err
	}
	for _, leagueID := range leagueIDs {
		for _, window := range windows {
			if err := s.upsertHistoryWinner(ctx, leagueID, window, env.OccurredAt); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyFixtureSetConcludedWinner persists the global winner of the concluded
// gameweek. The tables are final by now: conclusion only happens once every
// fixture is classified.
func (s *ProjectionService) applyFixtureSetConcludedWinner(ctx context.Context, env event.Envelope) error {
	payload, err := event.Decode[event.FixtureSetConcluded](env)
	if err != nil {
		return err
	}
	return s.upsertHistoryWinner(ctx, privateleague.GlobalLeagueID, points.GameweekWindow(payload.Gameweek), env.OccurredAt)
}

func (s *ProjectionService) allLeagueIDs(ctx context.Context) ([]string, error) {
	leagues, err := s.leagues.ListLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	ids := make([]string, 0, len(leagues)+1)
	ids = append(ids, privateleague.GlobalLeagueID)
	for _, league := range leagues {
		ids = append(ids, league.ID)
	}
	return ids, nil
}

// upsertHistoryWinner records the current leader of a (league, window) table
// under the window's key. Ties fall to the table's deterministic first row;
// reclassification rewrites the entry instead of appending a duplicate.
func (s *ProjectionService) upsertHistoryWinner(ctx context.Context, leagueID string, window points.Window, at time.Time) error {
	table, found, err := document.Load[document.LeagueTableDoc](ctx, s.documents, document.LeagueTableKey(leagueID, window.Key()))
	if err != nil {
		return err
	}
	if !found || len(table.Rows) == 0 {
		return nil
	}

	leader := table.Rows[0]
	winner := document.HistoryWinner{
		Window:      window.Key(),
		Description: window.Label(),
		PlayerID:    leader.PlayerID,
		PlayerName:  leader.PlayerName,
		Points:      leader.Tally.Points,
	}
	return document.Update(ctx, s.documents, document.HistoryKey(leagueID), func(doc document.HistoryDoc) (document.HistoryDoc, error) {
		doc.LeagueID = leagueID
		doc.UpdatedAt = at
		return doc.UpsertWinner(winner), nil
	})
}
