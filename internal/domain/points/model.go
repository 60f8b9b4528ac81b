package points

import "fmt"

// Outcome is the result class of a score line from the home side's view.
type Outcome string

const (
	OutcomeHomeWin Outcome = "HOME_WIN"
	OutcomeAwayWin Outcome = "AWAY_WIN"
	OutcomeDraw    Outcome = "DRAW"
)

// ScoreLine is a full-time score, home goals first.
type ScoreLine struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s ScoreLine) Outcome() Outcome {
	switch {
	case s.Home > s.Away:
		return OutcomeHomeWin
	case s.Home < s.Away:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

func (s ScoreLine) Validate() error {
	if s.Home < 0 || s.Away < 0 {
		return fmt.Errorf("score line goals must not be negative")
	}
	return nil
}

func (s ScoreLine) String() string {
	return fmt.Sprintf("%d-%d", s.Home, s.Away)
}

// Tally accumulates a player's scoring over any set of fixtures. The zero
// value is the identity: Add is commutative and associative, so tallies can
// be folded in any order and partial tallies merged.
type Tally struct {
	Points                   int `json:"points"`
	CorrectScores            int `json:"correctScores"`
	CorrectResults           int `json:"correctResults"`
	DoubleDownCorrectScores  int `json:"doubleDownCorrectScores"`
	DoubleDownCorrectResults int `json:"doubleDownCorrectResults"`
}

func (t Tally) Add(other Tally) Tally {
	return Tally{
		Points:                   t.Points + other.Points,
		CorrectScores:            t.CorrectScores + other.CorrectScores,
		CorrectResults:           t.CorrectResults + other.CorrectResults,
		DoubleDownCorrectScores:  t.DoubleDownCorrectScores + other.DoubleDownCorrectScores,
		DoubleDownCorrectResults: t.DoubleDownCorrectResults + other.DoubleDownCorrectResults,
	}
}

func (t Tally) IsZero() bool {
	return t == Tally{}
}

// TotalCorrectScores counts exact hits regardless of double-down.
func (t Tally) TotalCorrectScores() int {
	return t.CorrectScores + t.DoubleDownCorrectScores
}

// TotalCorrectResults counts outcome-class hits regardless of double-down.
func (t Tally) TotalCorrectResults() int {
	return t.CorrectResults + t.DoubleDownCorrectResults
}
