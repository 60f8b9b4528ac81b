package scoring

import (
	"testing"

	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

func TestScoreRule(t *testing.T) {
	t.Parallel()

	actual := points.ScoreLine{Home: 2, Away: 1}

	cases := []struct {
		name         string
		pred         *Prediction
		wantTally    points.Tally
		wantCategory Category
	}{
		{
			name:         "no prediction",
			pred:         nil,
			wantTally:    points.Tally{},
			wantCategory: CategoryIncorrect,
		},
		{
			name:         "exact score",
			pred:         &Prediction{Score: points.ScoreLine{Home: 2, Away: 1}},
			wantTally:    points.Tally{Points: 3, CorrectScores: 1},
			wantCategory: CategoryCorrectScore,
		},
		{
			name:         "exact score with double down",
			pred:         &Prediction{Score: points.ScoreLine{Home: 2, Away: 1}, DoubleDown: true},
			wantTally:    points.Tally{Points: 6, DoubleDownCorrectScores: 1},
			wantCategory: CategoryCorrectScore,
		},
		{
			name:         "correct outcome wrong score",
			pred:         &Prediction{Score: points.ScoreLine{Home: 3, Away: 0}},
			wantTally:    points.Tally{Points: 1, CorrectResults: 1},
			wantCategory: CategoryCorrectResult,
		},
		{
			name:         "correct outcome with double down",
			pred:         &Prediction{Score: points.ScoreLine{Home: 1, Away: 0}, DoubleDown: true},
			wantTally:    points.Tally{Points: 2, DoubleDownCorrectResults: 1},
			wantCategory: CategoryCorrectResult,
		},
		{
			name:         "wrong outcome",
			pred:         &Prediction{Score: points.ScoreLine{Home: 0, Away: 2}},
			wantTally:    points.Tally{},
			wantCategory: CategoryIncorrect,
		},
		{
			name:         "wrong outcome with double down still zero",
			pred:         &Prediction{Score: points.ScoreLine{Home: 1, Away: 1}, DoubleDown: true},
			wantTally:    points.Tally{},
			wantCategory: CategoryIncorrect,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tally, category := Score(actual, tc.pred)
			if tally != tc.wantTally {
				t.Fatalf("unexpected tally: got=%+v want=%+v", tally, tc.wantTally)
			}
			if category != tc.wantCategory {
				t.Fatalf("unexpected category: got=%s want=%s", category, tc.wantCategory)
			}
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	t.Parallel()

	actual := points.ScoreLine{Home: 0, Away: 0}
	pred := &Prediction{Score: points.ScoreLine{Home: 0, Away: 0}, DoubleDown: true}

	first, firstCat := Score(actual, pred)
	for i := 0; i < 10; i++ {
		tally, category := Score(actual, pred)
		if tally != first || category != firstCat {
			t.Fatalf("score not deterministic: got=%+v/%s want=%+v/%s", tally, category, first, firstCat)
		}
	}
}

func TestDoubleDownExactlyDoubles(t *testing.T) {
	t.Parallel()

	actuals := []points.ScoreLine{
		{Home: 2, Away: 1},
		{Home: 0, Away: 0},
		{Home: 1, Away: 4},
	}
	preds := []points.ScoreLine{
		{Home: 2, Away: 1},
		{Home: 1, Away: 0},
		{Home: 0, Away: 1},
		{Home: 3, Away: 3},
	}

	for _, actual := range actuals {
		for _, p := range preds {
			plain, _ := Score(actual, &Prediction{Score: p})
			doubled, _ := Score(actual, &Prediction{Score: p, DoubleDown: true})
			if doubled.Points != plain.Points*2 {
				t.Fatalf("double down points not doubled for actual=%s pred=%s: got=%d want=%d",
					actual, p, doubled.Points, plain.Points*2)
			}
		}
	}
}
