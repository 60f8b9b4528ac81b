package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

type fixtureSetTableModel struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	Gameweek  int       `db:"gameweek"`
	Concluded bool      `db:"concluded"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type fixtureSetInsertModel struct {
	PublicID  string `db:"public_id"`
	Gameweek  int    `db:"gameweek"`
	Concluded bool   `db:"concluded"`
}

type fixtureTableModel struct {
	ID                 int64         `db:"id"`
	PublicID           string        `db:"public_id"`
	FixtureSetPublicID string        `db:"fixture_set_public_id"`
	Gameweek           int           `db:"gameweek"`
	HomeTeam           string        `db:"home_team"`
	AwayTeam           string        `db:"away_team"`
	KickoffAt          time.Time     `db:"kickoff_at"`
	SortOrder          int           `db:"sort_order"`
	State              string        `db:"state"`
	ResultHome         sql.NullInt64 `db:"result_home"`
	ResultAway         sql.NullInt64 `db:"result_away"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

type fixtureInsertModel struct {
	PublicID           string        `db:"public_id"`
	FixtureSetPublicID string        `db:"fixture_set_public_id"`
	Gameweek           int           `db:"gameweek"`
	HomeTeam           string        `db:"home_team"`
	AwayTeam           string        `db:"away_team"`
	KickoffAt          time.Time     `db:"kickoff_at"`
	SortOrder          int           `db:"sort_order"`
	State              string        `db:"state"`
	ResultHome         sql.NullInt64 `db:"result_home"`
	ResultAway         sql.NullInt64 `db:"result_away"`
}

func (m fixtureTableModel) toDomain() fixtureset.Fixture {
	fixture := fixtureset.Fixture{
		ID:           m.PublicID,
		FixtureSetID: m.FixtureSetPublicID,
		Gameweek:     m.Gameweek,
		HomeTeam:     m.HomeTeam,
		AwayTeam:     m.AwayTeam,
		KickoffAt:    m.KickoffAt.UTC(),
		SortOrder:    m.SortOrder,
		State:        m.State,
	}
	if m.ResultHome.Valid && m.ResultAway.Valid {
		fixture.Result = &points.ScoreLine{
			Home: int(m.ResultHome.Int64),
			Away: int(m.ResultAway.Int64),
		}
	}
	return fixture
}

func resultColumns(result *points.ScoreLine) (sql.NullInt64, sql.NullInt64) {
	if result == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(result.Home), Valid: true},
		sql.NullInt64{Int64: int64(result.Away), Valid: true}
}
