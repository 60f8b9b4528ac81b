package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	qb "github.com/riskibarqy/predictions-league/internal/platform/querybuilder"
)

const upsertFixtureSetSuffix = `ON CONFLICT (public_id)
DO UPDATE SET
    gameweek = EXCLUDED.gameweek,
    concluded = EXCLUDED.concluded,
    updated_at = NOW()`

const upsertFixtureSuffix = `ON CONFLICT (public_id)
DO UPDATE SET
    fixture_set_public_id = EXCLUDED.fixture_set_public_id,
    gameweek = EXCLUDED.gameweek,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    kickoff_at = EXCLUDED.kickoff_at,
    sort_order = EXCLUDED.sort_order,
    state = EXCLUDED.state,
    result_home = EXCLUDED.result_home,
    result_away = EXCLUDED.result_away,
    updated_at = NOW()`

// FixtureSetRepository keeps the projected fixture-set records in Postgres.
// Rows are disposable read-model state: the projection rebuilds them from the
// event log, so deletes are hard deletes.
type FixtureSetRepository struct {
	db *sqlx.DB
}

func NewFixtureSetRepository(db *sqlx.DB) *FixtureSetRepository {
	return &FixtureSetRepository{db: db}
}

func (r *FixtureSetRepository) UpsertFixtureSet(ctx context.Context, set fixtureset.FixtureSet) error {
	insert := fixtureSetInsertModel{
		PublicID:  set.ID,
		Gameweek:  set.Gameweek,
		Concluded: set.Concluded,
	}

	query, args, err := qb.InsertModel("fixture_sets", insert, upsertFixtureSetSuffix)
	if err != nil {
		return fmt.Errorf("build upsert fixture set query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert fixture set %s: %w", set.ID, err)
	}
	return nil
}

func (r *FixtureSetRepository) GetFixtureSet(ctx context.Context, fixtureSetID string) (fixtureset.FixtureSet, bool, error) {
	query, args, err := qb.Select("*").
		From("fixture_sets").
		Where(qb.Eq("public_id", fixtureSetID)).
		ToSQL()
	if err != nil {
		return fixtureset.FixtureSet{}, false, fmt.Errorf("build get fixture set query: %w", err)
	}

	var row fixtureSetTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixtureset.FixtureSet{}, false, nil
		}
		return fixtureset.FixtureSet{}, false, fmt.Errorf("get fixture set %s: %w", fixtureSetID, err)
	}

	set, err := r.attachFixtures(ctx, row)
	if err != nil {
		return fixtureset.FixtureSet{}, false, err
	}
	return set, true, nil
}

func (r *FixtureSetRepository) GetFixtureSetByGameweek(ctx context.Context, gameweek int) (fixtureset.FixtureSet, bool, error) {
	query, args, err := qb.Select("*").
		From("fixture_sets").
		Where(qb.Eq("gameweek", gameweek)).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return fixtureset.FixtureSet{}, false, fmt.Errorf("build get fixture set by gameweek query: %w", err)
	}

	var row fixtureSetTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixtureset.FixtureSet{}, false, nil
		}
		return fixtureset.FixtureSet{}, false, fmt.Errorf("get fixture set for gameweek %d: %w", gameweek, err)
	}

	set, err := r.attachFixtures(ctx, row)
	if err != nil {
		return fixtureset.FixtureSet{}, false, err
	}
	return set, true, nil
}

func (r *FixtureSetRepository) ListFixtureSets(ctx context.Context) ([]fixtureset.FixtureSet, error) {
	query, args, err := qb.Select("*").
		From("fixture_sets").
		OrderBy("gameweek", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixture sets query: %w", err)
	}

	var rows []fixtureSetTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixture sets: %w", err)
	}
	if len(rows) == 0 {
		return []fixtureset.FixtureSet{}, nil
	}

	fixturesBySet, err := r.groupAllFixtures(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]fixtureset.FixtureSet, 0, len(rows))
	for _, row := range rows {
		set := rowToFixtureSet(row)
		set.Fixtures = fixturesBySet[row.PublicID]
		out = append(out, set)
	}
	return out, nil
}

func (r *FixtureSetRepository) UpsertFixture(ctx context.Context, fixture fixtureset.Fixture) error {
	resultHome, resultAway := resultColumns(fixture.Result)
	insert := fixtureInsertModel{
		PublicID:           fixture.ID,
		FixtureSetPublicID: fixture.FixtureSetID,
		Gameweek:           fixture.Gameweek,
		HomeTeam:           fixture.HomeTeam,
		AwayTeam:           fixture.AwayTeam,
		KickoffAt:          fixture.KickoffAt,
		SortOrder:          fixture.SortOrder,
		State:              fixture.State,
		ResultHome:         resultHome,
		ResultAway:         resultAway,
	}

	query, args, err := qb.InsertModel("fixtures", insert, upsertFixtureSuffix)
	if err != nil {
		return fmt.Errorf("build upsert fixture query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert fixture %s: %w", fixture.ID, err)
	}
	return nil
}

func (r *FixtureSetRepository) DeleteFixture(ctx context.Context, fixtureID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fixtures WHERE public_id = $1`, fixtureID); err != nil {
		return fmt.Errorf("delete fixture %s: %w", fixtureID, err)
	}
	return nil
}

func (r *FixtureSetRepository) GetFixture(ctx context.Context, fixtureID string) (fixtureset.Fixture, bool, error) {
	query, args, err := qb.Select("*").
		From("fixtures").
		Where(qb.Eq("public_id", fixtureID)).
		ToSQL()
	if err != nil {
		return fixtureset.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixtureset.Fixture{}, false, nil
		}
		return fixtureset.Fixture{}, false, fmt.Errorf("get fixture %s: %w", fixtureID, err)
	}
	return row.toDomain(), true, nil
}

func (r *FixtureSetRepository) ListFixturesBySet(ctx context.Context, fixtureSetID string) ([]fixtureset.Fixture, error) {
	return r.selectFixtures(ctx, "list fixtures by set", qb.Eq("fixture_set_public_id", fixtureSetID))
}

func (r *FixtureSetRepository) ListOpenFixturesDueBy(ctx context.Context, instant time.Time) ([]fixtureset.Fixture, error) {
	return r.selectFixtures(ctx, "list due fixtures",
		qb.Eq("state", fixtureset.StateOpen),
		qb.Expr("kickoff_at <= ?", instant),
	)
}

func (r *FixtureSetRepository) ListKickedOffFixtures(ctx context.Context) ([]fixtureset.Fixture, error) {
	return r.selectFixtures(ctx, "list kicked-off fixtures", qb.Eq("state", fixtureset.StateKickedOff))
}

func (r *FixtureSetRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE fixtures, fixture_sets`); err != nil {
		return fmt.Errorf("clear fixture sets: %w", err)
	}
	return nil
}

func (r *FixtureSetRepository) selectFixtures(ctx context.Context, op string, conditions ...qb.Condition) ([]fixtureset.Fixture, error) {
	query, args, err := qb.Select("*").
		From("fixtures").
		Where(conditions...).
		OrderBy("sort_order", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return fixturesFromModels(rows), nil
}

func (r *FixtureSetRepository) attachFixtures(ctx context.Context, row fixtureSetTableModel) (fixtureset.FixtureSet, error) {
	fixtures, err := r.ListFixturesBySet(ctx, row.PublicID)
	if err != nil {
		return fixtureset.FixtureSet{}, err
	}
	set := rowToFixtureSet(row)
	set.Fixtures = fixtures
	return set, nil
}

func (r *FixtureSetRepository) groupAllFixtures(ctx context.Context) (map[string][]fixtureset.Fixture, error) {
	query, args, err := qb.Select("*").
		From("fixtures").
		OrderBy("sort_order", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}

	grouped := make(map[string][]fixtureset.Fixture, len(rows))
	for _, row := range rows {
		grouped[row.FixtureSetPublicID] = append(grouped[row.FixtureSetPublicID], row.toDomain())
	}
	return grouped, nil
}

func rowToFixtureSet(row fixtureSetTableModel) fixtureset.FixtureSet {
	return fixtureset.FixtureSet{
		ID:        row.PublicID,
		Gameweek:  row.Gameweek,
		Concluded: row.Concluded,
	}
}

func fixturesFromModels(rows []fixtureTableModel) []fixtureset.Fixture {
	out := make([]fixtureset.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
