package services

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/in4everyall/tennisclub-league/models"
)

func newRankingFixture(players ...models.Player) (RankingService, *fakePlayers, *fakeMatches) {
	p := newFakePlayers(players...)
	m := &fakeMatches{}
	return NewRankingService(p, m, discardLogger()), p, m
}

func addConfirmed(m *fakeMatches, phase string, group int, p1, p2, winner string, sets models.Sets) {
	m.add(models.Match{
		PhaseCode:          phase,
		GroupNoAtMatch:     intPtr(group),
		Player1License:     p1,
		Player2License:     p2,
		WinnerLicense:      strPtr(winner),
		Sets:               sets,
		SubmittedByLicense: p1,
		Status:             models.MatchStatusConfirmed,
	})
}

func TestStandingsForGroupLiveRoster(t *testing.T) {
	svc, _, matches := newRankingFixture(
		leaguePlayer("P1", 1, "2025-1"),
		leaguePlayer("P2", 1, "2025-1"),
		leaguePlayer("P3", 1, "2025-1"),
	)
	addConfirmed(matches, "2025-1", 1, "P1", "P2", "P1", models.Sets{score(6, 4), score(6, 4)})
	addConfirmed(matches, "2025-1", 1, "P2", "P3", "P2", models.Sets{score(6, 1), score(6, 1)})
	addConfirmed(matches, "2025-1", 1, "P3", "P2", "P2", models.Sets{score(2, 6), score(3, 6)})
	// pending results never count
	matches.add(models.Match{PhaseCode: "2025-1", Player1License: "P3", Player2License: "P1", WinnerLicense: strPtr("P3"), Sets: models.Sets{score(6, 0), score(6, 0)}, Status: models.MatchStatusPending})

	rows, err := svc.StandingsForGroup(context.Background(), 1, "2025-1")
	if err != nil {
		t.Fatalf("StandingsForGroup() unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	want := []struct {
		license string
		points  int
	}{{"P2", 7}, {"P1", 3}, {"P3", 2}}
	for i, w := range want {
		if rows[i].LicenseNumber != w.license || rows[i].Points != w.points || rows[i].Position != i+1 {
			t.Errorf("row %d = %s/%d pts/pos %d, want %s/%d pts/pos %d",
				i, rows[i].LicenseNumber, rows[i].Points, rows[i].Position, w.license, w.points, i+1)
		}
	}
}

func TestStandingsForGroupStableAcrossCalls(t *testing.T) {
	svc, _, matches := newRankingFixture(
		leaguePlayer("Z1", 1, "2025-1"),
		leaguePlayer("A", 1, "2025-1"),
		leaguePlayer("D", 1, "2025-1"),
		leaguePlayer("B", 1, "2025-1"),
		leaguePlayer("Y1", 1, "2025-1"),
		leaguePlayer("C", 1, "2025-1"),
	)
	// A and C tie on points and sets, so do B and D. Games decide; Y1 and Z1 only differ by license.
	addConfirmed(matches, "2025-1", 1, "A", "B", "A", models.Sets{score(6, 4), score(6, 4)})
	addConfirmed(matches, "2025-1", 1, "C", "D", "C", models.Sets{score(6, 2), score(6, 2)})
	ctx := context.Background()

	first, err := svc.StandingsForGroup(ctx, 1, "2025-1")
	if err != nil {
		t.Fatalf("StandingsForGroup() unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.StandingsForGroup(ctx, 1, "2025-1")
		if err != nil {
			t.Fatalf("StandingsForGroup() unexpected error: %v", err)
		}
		if !slices.Equal(first, again) {
			t.Fatalf("call %d returned a different order:\n%+v\n%+v", i+2, first, again)
		}
	}

	want := []string{"C", "A", "B", "D", "Y1", "Z1"}
	got := make([]string, 0, len(first))
	for _, r := range first {
		got = append(got, r.LicenseNumber)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestStandingsForGroupFallsBackToHistory(t *testing.T) {
	svc, _, matches := newRankingFixture(
		leaguePlayer("P1", 2, "2025-2"),
		leaguePlayer("P2", 1, "2025-2"),
	)
	addConfirmed(matches, "2025-1", 1, "P1", "P2", "P2", models.Sets{score(4, 6), score(4, 6)})

	rows, err := svc.StandingsForGroup(context.Background(), 1, "2025-1")
	if err != nil {
		t.Fatalf("StandingsForGroup() unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want 2 players from history", rows)
	}
	if rows[0].LicenseNumber != "P2" || rows[0].GroupNo != 1 {
		t.Errorf("leader = %+v, want P2 in group 1", rows[0])
	}
	if rows[1].LicenseNumber != "P1" || rows[1].GroupNo != 1 {
		t.Errorf("second = %+v, want P1 shown in its historical group 1", rows[1])
	}
}

func TestStandingsForGroupValidation(t *testing.T) {
	svc, _, _ := newRankingFixture()
	if _, err := svc.StandingsForGroup(context.Background(), 0, "2025-1"); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("group 0: error = %v, want ErrValidationFailed", err)
	}
	if _, err := svc.StandingsForGroup(context.Background(), 1, ""); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("blank phase: error = %v, want ErrValidationFailed", err)
	}
}

func TestStandingsForPlayer(t *testing.T) {
	svc, _, matches := newRankingFixture(
		leaguePlayer("P1", 1, "2025-1"),
		leaguePlayer("P2", 1, "2025-1"),
		leaguePlayer("P9", 2, "2025-1"),
		leaguePlayer("NG", 0, "2025-1"),
	)
	addConfirmed(matches, "2025-1", 1, "P1", "P2", "P1", models.Sets{score(6, 4), score(6, 4)})
	ctx := context.Background()

	rows, err := svc.StandingsForPlayer(ctx, "P2", "2025-1")
	if err != nil {
		t.Fatalf("StandingsForPlayer() unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].LicenseNumber != "P1" {
		t.Fatalf("rows = %+v, want group 1 with P1 leading", rows)
	}

	if _, err := svc.StandingsForPlayer(ctx, "ghost", "2025-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown player: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.StandingsForPlayer(ctx, "P1", "2024-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("other phase: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.StandingsForPlayer(ctx, "NG", "2025-1"); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("no group: error = %v, want ErrValidationFailed", err)
	}
}

func TestStandingsForPhaseComputesEveryGroup(t *testing.T) {
	svc, _, matches := newRankingFixture(
		leaguePlayer("A", 1, "2025-1"),
		leaguePlayer("B", 1, "2025-1"),
		leaguePlayer("C", 2, "2025-1"),
		leaguePlayer("D", 2, "2025-1"),
		leaguePlayer("E", 3, "2025-1"),
	)
	addConfirmed(matches, "2025-1", 2, "C", "D", "D", models.Sets{score(1, 6), score(1, 6)})

	groups, err := svc.StandingsForPhase(context.Background(), "2025-1")
	if err != nil {
		t.Fatalf("StandingsForPhase() unexpected error: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	for i, g := range groups {
		if g.GroupNo != i+1 || g.PhaseCode != "2025-1" {
			t.Errorf("groups[%d] = group %d phase %s", i, g.GroupNo, g.PhaseCode)
		}
	}
	if groups[1].Rows[0].LicenseNumber != "D" {
		t.Errorf("group 2 leader = %s, want D", groups[1].Rows[0].LicenseNumber)
	}
}
