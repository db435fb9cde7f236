package league

import (
	"cmp"
	"slices"

	"github.com/in4everyall/tennisclub-league/models"
)

// RankByWins orders players by confirmed wins, most first. Equal win counts keep license order.
func RankByWins(players []models.Player, wins map[string]int) []models.Player {
	ranked := slices.Clone(players)
	slices.SortStableFunc(ranked, func(a, b models.Player) int {
		if c := cmp.Compare(wins[b.LicenseNumber], wins[a.LicenseNumber]); c != 0 {
			return c
		}
		return cmp.Compare(a.LicenseNumber, b.LicenseNumber)
	})
	return ranked
}

// GroupPlayers partitions players by their current group. Players without a group are left out.
func GroupPlayers(players []models.Player) map[int][]models.Player {
	groups := make(map[int][]models.Player)
	for _, p := range players {
		if p.GroupNo <= 0 {
			continue
		}
		groups[p.GroupNo] = append(groups[p.GroupNo], p)
	}
	return groups
}

// ComputeGroupMovements decides promotions and relegations at the end of a phase.
//
// Group 1 only relegates its last player, the bottom group only promotes its first one and
// intermediate groups do both. Groups with fewer than two players do not move anybody.
// Rankings are taken from the groups as they were before any move.
func ComputeGroupMovements(players []models.Player, wins map[string]int) []models.Reassignment {
	groups := GroupPlayers(players)
	if len(groups) == 0 {
		return nil
	}

	maxGroup := 0
	for g := range groups {
		maxGroup = max(maxGroup, g)
	}

	moves := make([]models.Reassignment, 0, 2*len(groups))
	for g := 1; g <= maxGroup; g++ {
		members := groups[g]
		if len(members) < 2 {
			continue
		}
		ranked := RankByWins(members, wins)
		first := ranked[0]
		last := ranked[len(ranked)-1]

		switch {
		case g == 1:
			if maxGroup >= 2 {
				moves = append(moves, models.Reassignment{LicenseNumber: last.LicenseNumber, FromGroup: g, ToGroup: g + 1})
			}
		case g == maxGroup:
			moves = append(moves, models.Reassignment{LicenseNumber: first.LicenseNumber, FromGroup: g, ToGroup: g - 1})
		default:
			moves = append(moves,
				models.Reassignment{LicenseNumber: first.LicenseNumber, FromGroup: g, ToGroup: g - 1},
				models.Reassignment{LicenseNumber: last.LicenseNumber, FromGroup: g, ToGroup: g + 1},
			)
		}
	}
	return moves
}
