package standings

import "github.com/riskibarqy/predictions-league/internal/domain/points"

// Entry is one player's accumulated scoring inside a window, before ranking.
type Entry struct {
	PlayerID   string
	PlayerName string
	Tally      points.Tally
}

// Row is a ranked league table row.
type Row struct {
	Position   int          `json:"position"`
	Movement   int          `json:"movement"`
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Tally      points.Tally `json:"tally"`
}
