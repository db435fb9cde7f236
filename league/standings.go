package league

import (
	"cmp"
	"slices"

	"github.com/in4everyall/tennisclub-league/models"
)

const (
	pointsForWin  = 3
	pointsForLoss = 1
)

// ComputeStandings folds the confirmed matches of a group into ranked rows, one per player.
//
// Matches without a winner, matches that are not confirmed and matches against players outside
// the given set are ignored. Rows are ordered by points, set difference, game difference (all
// descending) and finally by license number so the order is deterministic.
func ComputeStandings(players []models.Player, matches []models.Match) []models.StandingRow {
	rows := make(map[string]models.StandingRow, len(players))
	for _, p := range players {
		rows[p.LicenseNumber] = models.StandingRow{
			LicenseNumber: p.LicenseNumber,
			FullName:      p.FullName(),
			GroupNo:       p.GroupNo,
		}
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusConfirmed || m.WinnerLicense == nil {
			continue
		}
		r1, ok1 := rows[m.Player1License]
		r2, ok2 := rows[m.Player2License]
		if !ok1 || !ok2 {
			continue
		}

		var p1Wins bool
		switch *m.WinnerLicense {
		case m.Player1License:
			p1Wins = true
		case m.Player2License:
			p1Wins = false
		default:
			continue
		}

		r1, r2 = applyResult(r1, r2, p1Wins, m.Sets)
		rows[m.Player1License] = r1
		rows[m.Player2License] = r2
	}

	result := make([]models.StandingRow, 0, len(rows))
	for _, r := range rows {
		result = append(result, r)
	}
	slices.SortFunc(result, compareRows)

	for i := range result {
		result[i].Position = i + 1
	}
	return result
}

func applyResult(r1, r2 models.StandingRow, p1Wins bool, sets models.Sets) (models.StandingRow, models.StandingRow) {
	r1.MatchesPlayed++
	r2.MatchesPlayed++

	if p1Wins {
		r1.MatchesWon++
		r1.Points += pointsForWin
		r2.MatchesLost++
		r2.Points += pointsForLoss
	} else {
		r2.MatchesWon++
		r2.Points += pointsForWin
		r1.MatchesLost++
		r1.Points += pointsForLoss
	}

	for _, s := range sets {
		if !s.Played() {
			continue
		}
		g1, g2 := *s.P1, *s.P2
		r1.GamesWon += g1
		r1.GamesLost += g2
		r2.GamesWon += g2
		r2.GamesLost += g1

		switch {
		case g1 > g2:
			r1.SetsWon++
			r2.SetsLost++
		case g2 > g1:
			r2.SetsWon++
			r1.SetsLost++
		}
	}
	return r1, r2
}

func compareRows(a, b models.StandingRow) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.SetDifference(), a.SetDifference()); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GameDifference(), a.GameDifference()); c != 0 {
		return c
	}
	return cmp.Compare(a.LicenseNumber, b.LicenseNumber)
}
