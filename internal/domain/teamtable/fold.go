package teamtable

import (
	"sort"

	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

// Apply folds one result into an existing table and returns the table
// re-sorted with positions reassigned. Unknown teams gain a row on first
// sight. The input slice is not mutated.
func Apply(rows []Standing, result Result) []Standing {
	byTeam := make(map[string]Standing, len(rows)+2)
	for _, row := range rows {
		byTeam[row.Team] = row
	}

	home := byTeam[result.HomeTeam]
	home.Team = result.HomeTeam
	away := byTeam[result.AwayTeam]
	away.Team = result.AwayTeam

	home.Played++
	away.Played++
	home.GoalsFor += result.Score.Home
	home.GoalsAgainst += result.Score.Away
	away.GoalsFor += result.Score.Away
	away.GoalsAgainst += result.Score.Home
	home.GoalDifference = home.GoalsFor - home.GoalsAgainst
	away.GoalDifference = away.GoalsFor - away.GoalsAgainst

	switch result.Score.Outcome() {
	case points.OutcomeHomeWin:
		home.Won++
		home.Points += winPoints
		away.Lost++
		home.Form = pushForm(home.Form, 'W')
		away.Form = pushForm(away.Form, 'L')
	case points.OutcomeAwayWin:
		away.Won++
		away.Points += winPoints
		home.Lost++
		home.Form = pushForm(home.Form, 'L')
		away.Form = pushForm(away.Form, 'W')
	default:
		home.Drawn++
		away.Drawn++
		home.Points += drawPoints
		away.Points += drawPoints
		home.Form = pushForm(home.Form, 'D')
		away.Form = pushForm(away.Form, 'D')
	}

	byTeam[result.HomeTeam] = home
	byTeam[result.AwayTeam] = away

	next := make([]Standing, 0, len(byTeam))
	for _, row := range byTeam {
		next = append(next, row)
	}
	sortTable(next)
	for i := range next {
		next[i].Position = i + 1
	}
	return next
}

// Fold builds a table from scratch.
func Fold(results []Result) []Standing {
	var rows []Standing
	for _, result := range results {
		rows = Apply(rows, result)
	}
	return rows
}

func sortTable(rows []Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Team < b.Team
	})
}

// pushForm appends the newest result letter, keeping the most recent five.
func pushForm(form string, letter byte) string {
	next := form + string(letter)
	if len(next) > formLength {
		next = next[len(next)-formLength:]
	}
	return next
}
