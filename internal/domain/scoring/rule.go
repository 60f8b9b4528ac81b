package scoring

import "github.com/riskibarqy/predictions-league/internal/domain/points"

// Score applies the competition scoring rule to one fixture. It is total:
// every (actual, prediction) pair scores, including the absent prediction.
// Every scorer in the system goes through this function so that matrices,
// league tables and summaries can never disagree.
func Score(actual points.ScoreLine, pred *Prediction) (points.Tally, Category) {
	if pred == nil {
		return points.Tally{}, CategoryIncorrect
	}

	if pred.Score == actual {
		if pred.DoubleDown {
			return points.Tally{Points: PointsDoubleDownCorrectScore, DoubleDownCorrectScores: 1}, CategoryCorrectScore
		}
		return points.Tally{Points: PointsCorrectScore, CorrectScores: 1}, CategoryCorrectScore
	}

	if pred.Score.Outcome() == actual.Outcome() {
		if pred.DoubleDown {
			return points.Tally{Points: PointsDoubleDownCorrectResult, DoubleDownCorrectResults: 1}, CategoryCorrectResult
		}
		return points.Tally{Points: PointsCorrectResult, CorrectResults: 1}, CategoryCorrectResult
	}

	return points.Tally{}, CategoryIncorrect
}
