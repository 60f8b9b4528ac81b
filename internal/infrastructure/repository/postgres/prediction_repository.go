package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/predictions-league/internal/domain/prediction"
	qb "github.com/riskibarqy/predictions-league/internal/platform/querybuilder"
)

const upsertPredictionSuffix = `ON CONFLICT (player_public_id, fixture_public_id)
DO UPDATE SET
    fixture_set_public_id = EXCLUDED.fixture_set_public_id,
    score_home = EXCLUDED.score_home,
    score_away = EXCLUDED.score_away,
    double_down = EXCLUDED.double_down,
    entered_at = EXCLUDED.entered_at,
    updated_at = NOW()`

// PredictionRepository keeps the projected prediction records in Postgres.
type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) UpsertPrediction(ctx context.Context, pred prediction.Prediction) error {
	query, args, err := qb.InsertModel("predictions", predictionToInsertModel(pred), upsertPredictionSuffix)
	if err != nil {
		return fmt.Errorf("build upsert prediction query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert prediction %s/%s: %w", pred.PlayerID, pred.FixtureID, err)
	}
	return nil
}

// ReplaceSet swaps a player's whole slate for a fixture set in one
// transaction, so an overwrite never leaves stale rows behind.
func (r *PredictionRepository) ReplaceSet(ctx context.Context, playerID, fixtureSetID string, preds []prediction.Prediction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace predictions tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleteQuery := `DELETE FROM predictions WHERE player_public_id = $1 AND fixture_set_public_id = $2`
	if _, err := tx.ExecContext(ctx, deleteQuery, playerID, fixtureSetID); err != nil {
		return fmt.Errorf("clear predictions %s/%s: %w", playerID, fixtureSetID, err)
	}

	for _, pred := range preds {
		query, args, err := qb.InsertModel("predictions", predictionToInsertModel(pred), upsertPredictionSuffix)
		if err != nil {
			return fmt.Errorf("build insert prediction query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert prediction %s/%s: %w", pred.PlayerID, pred.FixtureID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace predictions tx: %w", err)
	}
	return nil
}

func (r *PredictionRepository) GetPrediction(ctx context.Context, playerID, fixtureID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").
		From("predictions").
		Where(
			qb.Eq("player_public_id", playerID),
			qb.Eq("fixture_public_id", fixtureID),
		).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction %s/%s: %w", playerID, fixtureID, err)
	}
	return row.toDomain(), true, nil
}

func (r *PredictionRepository) ListByFixture(ctx context.Context, fixtureID string) ([]prediction.Prediction, error) {
	return r.selectPredictions(ctx, "list predictions by fixture",
		[]string{"player_public_id", "fixture_public_id"},
		qb.Eq("fixture_public_id", fixtureID),
	)
}

func (r *PredictionRepository) ListByPlayerAndSet(ctx context.Context, playerID, fixtureSetID string) ([]prediction.Prediction, error) {
	return r.selectPredictions(ctx, "list predictions by player and set",
		[]string{"fixture_public_id"},
		qb.Eq("player_public_id", playerID),
		qb.Eq("fixture_set_public_id", fixtureSetID),
	)
}

func (r *PredictionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE predictions`); err != nil {
		return fmt.Errorf("clear predictions: %w", err)
	}
	return nil
}

func (r *PredictionRepository) selectPredictions(ctx context.Context, op string, orderBy []string, conditions ...qb.Condition) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").
		From("predictions").
		Where(conditions...).
		OrderBy(orderBy...).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
