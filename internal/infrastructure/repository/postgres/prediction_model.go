package postgres

import (
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/points"
	"github.com/riskibarqy/predictions-league/internal/domain/prediction"
)

type predictionTableModel struct {
	ID                 int64     `db:"id"`
	PlayerPublicID     string    `db:"player_public_id"`
	FixtureSetPublicID string    `db:"fixture_set_public_id"`
	FixturePublicID    string    `db:"fixture_public_id"`
	ScoreHome          int       `db:"score_home"`
	ScoreAway          int       `db:"score_away"`
	DoubleDown         bool      `db:"double_down"`
	EnteredAt          time.Time `db:"entered_at"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

type predictionInsertModel struct {
	PlayerPublicID     string    `db:"player_public_id"`
	FixtureSetPublicID string    `db:"fixture_set_public_id"`
	FixturePublicID    string    `db:"fixture_public_id"`
	ScoreHome          int       `db:"score_home"`
	ScoreAway          int       `db:"score_away"`
	DoubleDown         bool      `db:"double_down"`
	EnteredAt          time.Time `db:"entered_at"`
}

func (m predictionTableModel) toDomain() prediction.Prediction {
	return prediction.Prediction{
		PlayerID:     m.PlayerPublicID,
		FixtureSetID: m.FixtureSetPublicID,
		FixtureID:    m.FixturePublicID,
		Score:        points.ScoreLine{Home: m.ScoreHome, Away: m.ScoreAway},
		DoubleDown:   m.DoubleDown,
		EnteredAt:    m.EnteredAt.UTC(),
	}
}

func predictionToInsertModel(pred prediction.Prediction) predictionInsertModel {
	return predictionInsertModel{
		PlayerPublicID:     pred.PlayerID,
		FixtureSetPublicID: pred.FixtureSetID,
		FixturePublicID:    pred.FixtureID,
		ScoreHome:          pred.Score.Home,
		ScoreAway:          pred.Score.Away,
		DoubleDown:         pred.DoubleDown,
		EnteredAt:          pred.EnteredAt,
	}
}
