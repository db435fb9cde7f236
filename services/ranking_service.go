package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/in4everyall/tennisclub-league/league"
	"github.com/in4everyall/tennisclub-league/models"
	"github.com/in4everyall/tennisclub-league/repositories"
	"golang.org/x/sync/errgroup"
)

type RankingService interface {
	// LiveStandings ranks the players currently assigned to the group and phase.
	LiveStandings(ctx context.Context, groupNo int, phaseCode string) ([]models.StandingRow, error)
	// HistoricalStandings ranks a group of a past phase from the group recorded on each match.
	HistoricalStandings(ctx context.Context, groupNo int, phaseCode string) ([]models.StandingRow, error)
	// StandingsForGroup uses the live roster when it exists and falls back to the history.
	StandingsForGroup(ctx context.Context, groupNo int, phaseCode string) ([]models.StandingRow, error)
	StandingsForPlayer(ctx context.Context, license, phaseCode string) ([]models.StandingRow, error)
	StandingsForPhase(ctx context.Context, phaseCode string) ([]models.GroupStandings, error)
}

type rankingService struct {
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	logger     *slog.Logger
}

func NewRankingService(playerRepo repositories.PlayerRepository, matchRepo repositories.MatchRepository, logger *slog.Logger) RankingService {
	return &rankingService{
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		logger:     logger,
	}
}

func (s *rankingService) LiveStandings(ctx context.Context, groupNo int, phaseCode string) ([]models.StandingRow, error) {
	players, err := s.playerRepo.ListByGroupAndPhase(ctx, nil, groupNo, phaseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load group %d of phase %s: %w", groupNo, phaseCode, err)
	}
	return s.liveFromRoster(ctx, players, phaseCode)
}

func (s *rankingService) liveFromRoster(ctx context.Context, players []models.Player, phaseCode string) ([]models.StandingRow, error) {
	if len(players) == 0 {
		return []models.StandingRow{}, nil
	}
	licenses := make([]string, 0, len(players))
	for _, p := range players {
		licenses = append(licenses, p.LicenseNumber)
	}

	matches, err := s.matchRepo.ListConfirmedByPhaseAndPlayers(ctx, nil, phaseCode, licenses)
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed matches of phase %s: %w", phaseCode, err)
	}
	return league.ComputeStandings(players, matches), nil
}

func (s *rankingService) HistoricalStandings(ctx context.Context, groupNo int, phaseCode string) ([]models.StandingRow, error) {
	matches, err := s.matchRepo.ListConfirmedByPhaseAndHistoricalGroup(ctx, nil, phaseCode, groupNo)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of group %d in phase %s: %w", groupNo, phaseCode, err)
	}
	if len(matches) == 0 {
		return []models.StandingRow{}, nil
	}

	licenses := make([]string, 0, 2*len(matches))
	for _, m := range matches {
		licenses = append(licenses, m.Player1License, m.Player2License)
	}
	slices.Sort(licenses)
	licenses = slices.Compact(licenses)

	known, err := s.playerRepo.ListByLicenses(ctx, nil, licenses)
	if err != nil {
		return nil, fmt.Errorf("failed to load players of group %d in phase %s: %w", groupNo, phaseCode, err)
	}
	byLicense := make(map[string]models.Player, len(known))
	for _, p := range known {
		byLicense[p.LicenseNumber] = p
	}

	players := make([]models.Player, 0, len(licenses))
	for _, l := range licenses {
		p, ok := byLicense[l]
		if !ok {
			p = models.Player{LicenseNumber: l}
		}
		p.GroupNo = groupNo
		p.PhaseCode = phaseCode
		players = append(players, p)
	}
	return league.ComputeStandings(players, matches), nil
}

func (s *rankingService) StandingsForGroup(ctx context.Context, groupNo int, phaseCode string) ([]models.StandingRow, error) {
	if groupNo <= 0 || phaseCode == "" {
		return nil, fmt.Errorf("%w: group and phase are required", ErrValidationFailed)
	}
	players, err := s.playerRepo.ListByGroupAndPhase(ctx, nil, groupNo, phaseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load group %d of phase %s: %w", groupNo, phaseCode, err)
	}
	if len(players) > 0 {
		return s.liveFromRoster(ctx, players, phaseCode)
	}
	return s.HistoricalStandings(ctx, groupNo, phaseCode)
}

func (s *rankingService) StandingsForPlayer(ctx context.Context, license, phaseCode string) ([]models.StandingRow, error) {
	player, err := s.playerRepo.GetByLicense(ctx, nil, license)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, fmt.Errorf("%w: player %s", ErrNotFound, license)
		}
		return nil, err
	}
	if player.PhaseCode != phaseCode {
		return nil, fmt.Errorf("%w: player %s is not in phase %s", ErrNotFound, license, phaseCode)
	}
	if player.GroupNo <= 0 {
		return nil, fmt.Errorf("%w: player %s has no group in phase %s", ErrValidationFailed, license, phaseCode)
	}
	return s.LiveStandings(ctx, player.GroupNo, phaseCode)
}

// StandingsForPhase computes every group of a phase concurrently. Groups come from the live
// roster, or from the matches once the phase has been closed.
func (s *rankingService) StandingsForPhase(ctx context.Context, phaseCode string) ([]models.GroupStandings, error) {
	groupNos, err := s.groupsOfPhase(ctx, phaseCode)
	if err != nil {
		return nil, err
	}

	result := make([]models.GroupStandings, len(groupNos))
	g, gCtx := errgroup.WithContext(ctx)
	for i, groupNo := range groupNos {
		g.Go(func() error {
			rows, err := s.StandingsForGroup(gCtx, groupNo, phaseCode)
			if err != nil {
				return err
			}
			result[i] = models.GroupStandings{GroupNo: groupNo, PhaseCode: phaseCode, Rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to compute phase standings", slog.String("phase_code", phaseCode), slog.Any("error", err))
		return nil, err
	}
	return result, nil
}

func (s *rankingService) groupsOfPhase(ctx context.Context, phaseCode string) ([]int, error) {
	players, err := s.playerRepo.ListByPhase(ctx, nil, phaseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load players of phase %s: %w", phaseCode, err)
	}

	groups := make([]int, 0)
	if len(players) > 0 {
		for g := range league.GroupPlayers(players) {
			groups = append(groups, g)
		}
	} else {
		views, err := s.matchRepo.ListViews(ctx, nil, models.MatchFilter{PhaseCode: &phaseCode})
		if err != nil {
			return nil, fmt.Errorf("failed to load matches of phase %s: %w", phaseCode, err)
		}
		for _, v := range views {
			if v.GroupNoAtMatch != nil && *v.GroupNoAtMatch > 0 {
				groups = append(groups, *v.GroupNoAtMatch)
			}
		}
	}
	slices.Sort(groups)
	return slices.Compact(groups), nil
}
