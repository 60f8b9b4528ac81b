package document

import (
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/points"
	"github.com/riskibarqy/predictions-league/internal/domain/scoring"
	"github.com/riskibarqy/predictions-league/internal/domain/standings"
	"github.com/riskibarqy/predictions-league/internal/domain/teamtable"
)

const (
	FixtureStateOpen       = "OPEN"
	FixtureStateKickedOff  = "KICKED_OFF"
	FixtureStateClassified = "CLASSIFIED"
)

// LeagueTableDoc is a ranked standings table for one (league, window).
// Rebuilt wholesale on every classification touching the window.
type LeagueTableDoc struct {
	LeagueID  string          `json:"leagueId"`
	Window    string          `json:"window"`
	Label     string          `json:"label"`
	Rows      []standings.Row `json:"rows"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// MatrixDoc is the gameweek grid: fixtures across, players down. Predictions
// appear only once their fixture kicks off.
type MatrixDoc struct {
	LeagueID  string          `json:"leagueId"`
	Gameweek  int             `json:"gameweek"`
	Fixtures  []MatrixFixture `json:"fixtures"`
	Players   []MatrixPlayer  `json:"players"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type MatrixFixture struct {
	FixtureID string            `json:"fixtureId"`
	HomeTeam  string            `json:"homeTeam"`
	AwayTeam  string            `json:"awayTeam"`
	KickoffAt time.Time         `json:"kickoffAt"`
	SortOrder int               `json:"sortOrder"`
	State     string            `json:"state"`
	Result    *points.ScoreLine `json:"result,omitempty"`
}

type MatrixPlayer struct {
	PlayerID    string                      `json:"playerId"`
	PlayerName  string                      `json:"playerName"`
	Predictions map[string]MatrixPrediction `json:"predictions"`
	Total       int                         `json:"total"`
}

// MatrixPrediction is one revealed cell. Points stays nil until the fixture
// is classified.
type MatrixPrediction struct {
	Score      points.ScoreLine `json:"score"`
	DoubleDown bool             `json:"doubleDown"`
	Points     *int             `json:"points,omitempty"`
}

// SummaryDoc is one player's scored breakdown of one fixture set.
type SummaryDoc struct {
	PlayerID     string       `json:"playerId"`
	FixtureSetID string       `json:"fixtureSetId"`
	Gameweek     int          `json:"gameweek"`
	Rows         []SummaryRow `json:"rows"`
	Tally        points.Tally `json:"tally"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type SummaryRow struct {
	FixtureID  string            `json:"fixtureId"`
	HomeTeam   string            `json:"homeTeam"`
	AwayTeam   string            `json:"awayTeam"`
	Result     *points.ScoreLine `json:"result,omitempty"`
	Predicted  *points.ScoreLine `json:"predicted,omitempty"`
	DoubleDown bool              `json:"doubleDown"`
	Category   scoring.Category  `json:"category"`
	Points     int               `json:"points"`
}

// HistoryDoc lists window winners for one league, newest last. Winners are
// upserted by window key so reclassification rewrites rather than duplicates.
type HistoryDoc struct {
	LeagueID  string          `json:"leagueId"`
	Winners   []HistoryWinner `json:"winners"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type HistoryWinner struct {
	Window      string `json:"window"`
	Description string `json:"description"`
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	Points      int    `json:"points"`
}

// UpsertWinner replaces the winner for the window or appends a new one.
func (d HistoryDoc) UpsertWinner(winner HistoryWinner) HistoryDoc {
	for i, existing := range d.Winners {
		if existing.Window == winner.Window {
			d.Winners[i] = winner
			return d
		}
	}
	d.Winners = append(d.Winners, winner)
	return d
}

// TeamTableDoc is a derived football table: the real one folded from
// classified results, or one player's predicted world.
type TeamTableDoc struct {
	Scope     string               `json:"scope"`
	Rows      []teamtable.Standing `json:"rows"`
	UpdatedAt time.Time            `json:"updatedAt"`
}
