package document

import "fmt"

// Document keys are deterministic so that replayed projections land on the
// same rows they produced the first time.

func LeagueTableKey(leagueID, windowKey string) string {
	return fmt.Sprintf("table:%s:%s", leagueID, windowKey)
}

func MatrixKey(leagueID string, gameweek int) string {
	return fmt.Sprintf("matrix:%s:%d", leagueID, gameweek)
}

func SummaryKey(playerID, fixtureSetID string) string {
	return fmt.Sprintf("summary:%s:%s", playerID, fixtureSetID)
}

func HistoryKey(leagueID string) string {
	return fmt.Sprintf("history:%s", leagueID)
}

func ActualTeamTableKey() string {
	return "teamtable:actual"
}

func PredictedTeamTableKey(playerID string) string {
	return fmt.Sprintf("teamtable:predicted:%s", playerID)
}
