package league

import (
	"slices"

	"github.com/in4everyall/tennisclub-league/models"
)

// ExpectedMatches is the size of a single round robin between n players.
func ExpectedMatches(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// RoundRobinPairings lists every pair of a group once, in license order.
func RoundRobinPairings(groupNo int, licenses []string) []models.Pairing {
	sorted := slices.Clone(licenses)
	slices.Sort(sorted)

	pairings := make([]models.Pairing, 0, ExpectedMatches(len(sorted)))
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			pairings = append(pairings, models.Pairing{
				GroupNo:        groupNo,
				Player1License: sorted[i],
				Player2License: sorted[j],
			})
		}
	}
	return pairings
}

// PairKey identifies a pair of players regardless of order.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// MissingPairings returns the round-robin pairings that have no match yet.
func MissingPairings(groups map[int][]models.Player, matches []models.Match) []models.Pairing {
	played := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if m.Status == models.MatchStatusCancelled {
			continue
		}
		played[PairKey(m.Player1License, m.Player2License)] = struct{}{}
	}

	groupNos := make([]int, 0, len(groups))
	for g := range groups {
		groupNos = append(groupNos, g)
	}
	slices.Sort(groupNos)

	missing := make([]models.Pairing, 0)
	for _, g := range groupNos {
		licenses := make([]string, 0, len(groups[g]))
		for _, p := range groups[g] {
			licenses = append(licenses, p.LicenseNumber)
		}
		for _, pairing := range RoundRobinPairings(g, licenses) {
			if _, ok := played[PairKey(pairing.Player1License, pairing.Player2License)]; !ok {
				missing = append(missing, pairing)
			}
		}
	}
	return missing
}
