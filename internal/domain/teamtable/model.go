package teamtable

import "github.com/riskibarqy/predictions-league/internal/domain/points"

// Standing is one football team's row in a derived table. Derived tables are
// folded from score lines only: the real table from classified results, a
// predicted table from one player's predictions taken at kickoff.
type Standing struct {
	Position       int    `json:"position"`
	Team           string `json:"team"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
	Form           string `json:"form"`
}

// Result is one full-time score line between two named teams.
type Result struct {
	HomeTeam string
	AwayTeam string
	Score    points.ScoreLine
}

const formLength = 5

const (
	winPoints  = 3
	drawPoints = 1
)
