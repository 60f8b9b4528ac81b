package scoring

import "github.com/riskibarqy/predictions-league/internal/domain/points"

// Category classifies one scored prediction.
type Category string

const (
	CategoryCorrectScore  Category = "CORRECT_SCORE"
	CategoryCorrectResult Category = "CORRECT_RESULT"
	CategoryIncorrect     Category = "INCORRECT"
)

const (
	PointsCorrectScore            = 3
	PointsCorrectResult           = 1
	PointsDoubleDownCorrectScore  = 6
	PointsDoubleDownCorrectResult = 2
)

// Prediction is the scored input: a predicted score line and whether the
// player staked their double-down on this fixture. A nil *Prediction means
// the player never predicted the fixture.
type Prediction struct {
	Score      points.ScoreLine
	DoubleDown bool
}
