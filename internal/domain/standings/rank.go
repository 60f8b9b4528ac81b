package standings

import "sort"

// Rank orders entries into a league table. Sorting is descending by points,
// then total correct scores, then total correct results. Entries equal on
// all three share a position and the next distinct entry skips past them,
// so [10 10 8] ranks [1 1 3]. Movement is always zero: position deltas were
// never tracked upstream and the field is kept for document compatibility.
// Ties beyond the sort keys keep a stable player-id order so rebuilding a
// table from the same classifications always yields the same document.
func Rank(entries []Entry) []Row {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Tally.Points != b.Tally.Points {
			return a.Tally.Points > b.Tally.Points
		}
		if a.Tally.TotalCorrectScores() != b.Tally.TotalCorrectScores() {
			return a.Tally.TotalCorrectScores() > b.Tally.TotalCorrectScores()
		}
		if a.Tally.TotalCorrectResults() != b.Tally.TotalCorrectResults() {
			return a.Tally.TotalCorrectResults() > b.Tally.TotalCorrectResults()
		}
		return a.PlayerID < b.PlayerID
	})

	rows := make([]Row, 0, len(sorted))
	for i, entry := range sorted {
		position := i + 1
		if i > 0 && sameRankKeys(sorted[i-1], entry) {
			position = rows[i-1].Position
		}
		rows = append(rows, Row{
			Position:   position,
			PlayerID:   entry.PlayerID,
			PlayerName: entry.PlayerName,
			Tally:      entry.Tally,
		})
	}
	return rows
}

// Leaders returns the entries sharing first position, or nil for an empty
// table. Joint leaders are all returned.
func Leaders(rows []Row) []Row {
	if len(rows) == 0 {
		return nil
	}
	leaders := []Row{rows[0]}
	for _, row := range rows[1:] {
		if row.Position != 1 {
			break
		}
		leaders = append(leaders, row)
	}
	return leaders
}

func sameRankKeys(a, b Entry) bool {
	return a.Tally.Points == b.Tally.Points &&
		a.Tally.TotalCorrectScores() == b.Tally.TotalCorrectScores() &&
		a.Tally.TotalCorrectResults() == b.Tally.TotalCorrectResults()
}
