package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/in4everyall/tennisclub-league/models"
	"github.com/in4everyall/tennisclub-league/repositories"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeTx struct {
	calls int
	opts  []*sql.TxOptions
}

func (f *fakeTx) WithinTx(ctx context.Context, opts *sql.TxOptions, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	f.opts = append(f.opts, opts)
	return fn(nil)
}

type fakePlayers struct {
	mu      sync.Mutex
	players map[string]models.Player
}

func newFakePlayers(players ...models.Player) *fakePlayers {
	f := &fakePlayers{players: make(map[string]models.Player)}
	for _, p := range players {
		f.players[p.LicenseNumber] = p
	}
	return f
}

func (f *fakePlayers) sorted(keep func(models.Player) bool) []models.Player {
	out := make([]models.Player, 0)
	for _, p := range f.players {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.Player) int {
		if a.GroupNo != b.GroupNo {
			return a.GroupNo - b.GroupNo
		}
		if a.LicenseNumber < b.LicenseNumber {
			return -1
		}
		return 1
	})
	return out
}

func (f *fakePlayers) GetByLicense(ctx context.Context, exec repositories.SQLExecutor, license string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[license]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	return &p, nil
}

func (f *fakePlayers) ListByGroupAndPhase(ctx context.Context, exec repositories.SQLExecutor, groupNo int, phaseCode string) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p models.Player) bool { return p.GroupNo == groupNo && p.PhaseCode == phaseCode }), nil
}

func (f *fakePlayers) ListByPhase(ctx context.Context, exec repositories.SQLExecutor, phaseCode string) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p models.Player) bool { return p.PhaseCode == phaseCode }), nil
}

func (f *fakePlayers) ListByLicenses(ctx context.Context, exec repositories.SQLExecutor, licenses []string) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(p models.Player) bool { return slices.Contains(licenses, p.LicenseNumber) }), nil
}

func (f *fakePlayers) ListAll(ctx context.Context, exec repositories.SQLExecutor) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(models.Player) bool { return true }), nil
}

func (f *fakePlayers) UpdateGroup(ctx context.Context, exec repositories.SQLExecutor, license string, groupNo int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[license]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.GroupNo = groupNo
	f.players[license] = p
	return nil
}

func (f *fakePlayers) SetPhaseForAll(ctx context.Context, exec repositories.SQLExecutor, phaseCode string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for l, p := range f.players {
		p.PhaseCode = phaseCode
		f.players[l] = p
	}
	return int64(len(f.players)), nil
}

func (f *fakePlayers) ListDistinctPhaseCodes(ctx context.Context, exec repositories.SQLExecutor) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	codes := make([]string, 0)
	for _, p := range f.players {
		if p.PhaseCode != "" && !slices.Contains(codes, p.PhaseCode) {
			codes = append(codes, p.PhaseCode)
		}
	}
	slices.Sort(codes)
	return codes, nil
}

type fakeMatches struct {
	mu      sync.Mutex
	matches []*models.Match
	seq     int
	locks   int
	// conflictOnUpdate makes the next Update fail as if another writer won.
	conflictOnUpdate bool
}

func (f *fakeMatches) add(m models.Match) *models.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Version == 0 {
		m.Version = 1
	}
	f.seq++
	m.CreatedAt = testNow.Add(time.Duration(f.seq) * time.Minute)
	stored := m
	f.matches = append(f.matches, &stored)
	return &stored
}

func samePair(m *models.Match, p1, p2 string) bool {
	return (m.Player1License == p1 && m.Player2License == p2) || (m.Player1License == p2 && m.Player2License == p1)
}

func (f *fakeMatches) Create(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	f.mu.Lock()
	for _, m := range f.matches {
		if m.Status == models.MatchStatusPending && m.PhaseCode == match.PhaseCode && samePair(m, match.Player1License, match.Player2License) {
			f.mu.Unlock()
			return repositories.ErrMatchPendingDuplicate
		}
	}
	f.mu.Unlock()
	stored := f.add(*match)
	*match = *stored
	return nil
}

func (f *fakeMatches) GetByID(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatches) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflictOnUpdate {
		f.conflictOnUpdate = false
		return fmt.Errorf("%w: simulated", repositories.ErrMatchVersionConflict)
	}
	for i, m := range f.matches {
		if m.ID == match.ID {
			if m.Version != match.Version {
				return repositories.ErrMatchVersionConflict
			}
			match.Version++
			match.UpdatedAt = testNow
			cp := *match
			f.matches[i] = &cp
			return nil
		}
	}
	return repositories.ErrMatchVersionConflict
}

func (f *fakeMatches) ListViews(ctx context.Context, exec repositories.SQLExecutor, filter models.MatchFilter) ([]models.MatchView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	views := make([]models.MatchView, 0)
	for _, m := range f.matches {
		if filter.PhaseCode != nil && m.PhaseCode != *filter.PhaseCode {
			continue
		}
		if filter.License != nil && !plays(m, *filter.License) {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		views = append(views, models.MatchView{Match: *m, GroupNo: m.GroupNoAtMatch, Player1Name: m.Player1License, Player2Name: m.Player2License})
	}
	return views, nil
}

func (f *fakeMatches) FindLatestBetween(ctx context.Context, exec repositories.SQLExecutor, phaseCode, player1, player2 string) (*models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.matches) - 1; i >= 0; i-- {
		m := f.matches[i]
		if m.PhaseCode == phaseCode && samePair(m, player1, player2) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatches) ExistsPendingBetween(ctx context.Context, exec repositories.SQLExecutor, phaseCode, player1, player2 string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.matches {
		if m.PhaseCode == phaseCode && m.Status == models.MatchStatusPending && samePair(m, player1, player2) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMatches) CountConfirmedWinsByPhase(ctx context.Context, exec repositories.SQLExecutor, phaseCode string) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wins := make(map[string]int)
	for _, m := range f.matches {
		if m.PhaseCode == phaseCode && m.Status == models.MatchStatusConfirmed && m.WinnerLicense != nil {
			wins[*m.WinnerLicense]++
		}
	}
	return wins, nil
}

func (f *fakeMatches) CountByPhaseAndStatus(ctx context.Context, exec repositories.SQLExecutor, phaseCode string, status models.MatchStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.matches {
		if m.PhaseCode == phaseCode && m.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeMatches) ListConfirmedByPhaseAndPlayers(ctx context.Context, exec repositories.SQLExecutor, phaseCode string, licenses []string) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range f.matches {
		if m.PhaseCode == phaseCode && m.Status == models.MatchStatusConfirmed &&
			slices.Contains(licenses, m.Player1License) && slices.Contains(licenses, m.Player2License) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatches) ListConfirmedByPhaseAndHistoricalGroup(ctx context.Context, exec repositories.SQLExecutor, phaseCode string, groupNo int) ([]models.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Match, 0)
	for _, m := range f.matches {
		if m.PhaseCode == phaseCode && m.Status == models.MatchStatusConfirmed && m.GroupNoAtMatch != nil && *m.GroupNoAtMatch == groupNo {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMatches) ConfirmAllPending(ctx context.Context, exec repositories.SQLExecutor, phaseCode, updatedBy string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.matches {
		if m.PhaseCode == phaseCode && m.Status == models.MatchStatusPending {
			m.Status = models.MatchStatusConfirmed
			m.UpdatedBy = &updatedBy
			m.Version++
			n++
		}
	}
	return n, nil
}

func (f *fakeMatches) ListPhaseCodes(ctx context.Context, exec repositories.SQLExecutor) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	codes := make([]string, 0)
	for _, m := range f.matches {
		if !slices.Contains(codes, m.PhaseCode) {
			codes = append(codes, m.PhaseCode)
		}
	}
	return codes, nil
}

func (f *fakeMatches) ListPhaseCodesForPlayer(ctx context.Context, exec repositories.SQLExecutor, license string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	codes := make([]string, 0)
	for _, m := range f.matches {
		if plays(m, license) && !slices.Contains(codes, m.PhaseCode) {
			codes = append(codes, m.PhaseCode)
		}
	}
	return codes, nil
}

func (f *fakeMatches) LockPhaseAdvancement(ctx context.Context, exec repositories.SQLExecutor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locks++
	return nil
}

type fakeUsers map[string]models.UserRole

func (f fakeUsers) GetByLicense(ctx context.Context, license string) (*models.User, error) {
	role, ok := f[license]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &models.User{LicenseNumber: license, Role: role}, nil
}

type publishedEvent struct {
	room    string
	message interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) BroadcastToRoom(roomID string, message interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{room: roomID, message: message})
}

type fakeRecorder struct {
	transitions map[string]int
	closes      int
	moves       int
}

func newFakeRecorder() *fakeRecorder { return &fakeRecorder{transitions: map[string]int{}} }

func (f *fakeRecorder) RecordMatchTransition(status string) { f.transitions[status]++ }

func (f *fakeRecorder) RecordPhaseClosed(phaseCode string, reassignments int) {
	f.closes++
	f.moves += reassignments
}

func leaguePlayer(license string, group int, phase string) models.Player {
	return models.Player{LicenseNumber: license, FirstName: "Player", LastName: license, GroupNo: group, PhaseCode: phase}
}

func score(p1, p2 int) models.SetScore { return models.NewSetScore(p1, p2) }

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

func plays(m *models.Match, license string) bool {
	return m.Player1License == license || m.Player2License == license
}
