package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/in4everyall/tennisclub-league/events"
	"github.com/in4everyall/tennisclub-league/league"
	"github.com/in4everyall/tennisclub-league/models"
	"github.com/in4everyall/tennisclub-league/repositories"
)

type AdminService interface {
	// ClosePhase applies the group movements of a finished phase and rolls every player over to the
	// next phase of the current year, atomically.
	ClosePhase(ctx context.Context, phaseCode string) (*models.PhaseCloseResult, error)
	ComputeGroupMovements(ctx context.Context, phaseCode string) ([]models.Reassignment, error)
	AdvancePhaseForCurrentYear(ctx context.Context) (string, error)
	MatchesSummary(ctx context.Context, phaseCode string) (*models.MatchesSummary, error)
	ConfirmAll(ctx context.Context, adminLicense, phaseCode string) (int64, error)
	ListPlayers(ctx context.Context) ([]models.PlayerGroupItem, error)
	PhaseCodes(ctx context.Context) ([]string, error)
}

type adminService struct {
	tx         repositories.TxManager
	playerRepo repositories.PlayerRepository
	matchRepo  repositories.MatchRepository
	ranking    RankingService
	archive    ArchiveService
	publisher  EventPublisher
	recorder   MetricsRecorder
	now        Clock
	logger     *slog.Logger
}

// NewAdminService wires the admin operations. archive may be nil when object storage is not configured.
func NewAdminService(
	tx repositories.TxManager,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	ranking RankingService,
	archive ArchiveService,
	publisher EventPublisher,
	recorder MetricsRecorder,
	now Clock,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		tx:         tx,
		playerRepo: playerRepo,
		matchRepo:  matchRepo,
		ranking:    ranking,
		archive:    archive,
		publisher:  publisher,
		recorder:   recorder,
		now:        now,
		logger:     logger,
	}
}

var serializable = &sql.TxOptions{Isolation: sql.LevelSerializable}

func (s *adminService) ClosePhase(ctx context.Context, phaseCode string) (*models.PhaseCloseResult, error) {
	if _, err := league.ParsePhaseCode(phaseCode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	result := &models.PhaseCloseResult{ClosedPhase: phaseCode}
	err := s.tx.WithinTx(ctx, serializable, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.LockPhaseAdvancement(ctx, exec); err != nil {
			return err
		}

		pending, err := s.matchRepo.CountByPhaseAndStatus(ctx, exec, phaseCode, models.MatchStatusPending)
		if err != nil {
			return err
		}
		if pending > 0 {
			return fmt.Errorf("%w: %d pending matches in phase %s", ErrPhaseNotReady, pending, phaseCode)
		}

		moves, err := s.computeMovements(ctx, exec, phaseCode)
		if err != nil {
			return err
		}
		for _, m := range moves {
			if err := s.playerRepo.UpdateGroup(ctx, exec, m.LicenseNumber, m.ToGroup); err != nil {
				return fmt.Errorf("failed to move player %s to group %d: %w", m.LicenseNumber, m.ToGroup, err)
			}
		}

		next, err := s.advance(ctx, exec)
		if err != nil {
			return err
		}
		result.Reassignments = moves
		result.NextPhase = next
		return nil
	})
	if err != nil {
		s.logger.Warn("phase close failed", slog.String("phase_code", phaseCode), slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("phase closed",
		slog.String("phase_code", phaseCode),
		slog.String("next_phase", result.NextPhase),
		slog.Int("reassignments", len(result.Reassignments)),
	)
	if s.recorder != nil {
		s.recorder.RecordPhaseClosed(phaseCode, len(result.Reassignments))
	}

	result.ArchiveURL = s.archivePhase(ctx, phaseCode)
	publish(s.publisher, events.PhaseClosed, phaseCode, result, s.now())
	return result, nil
}

// archivePhase uploads the closed standings. Failures are logged and never undo the close.
func (s *adminService) archivePhase(ctx context.Context, phaseCode string) string {
	if s.archive == nil {
		return ""
	}
	groups, err := s.ranking.StandingsForPhase(ctx, phaseCode)
	if err != nil {
		s.logger.Error("failed to compute standings for archive", slog.String("phase_code", phaseCode), slog.Any("error", err))
		return ""
	}
	url, err := s.archive.ArchivePhase(ctx, phaseCode, groups)
	if err != nil {
		s.logger.Error("failed to archive phase", slog.String("phase_code", phaseCode), slog.Any("error", err))
		return ""
	}
	return url
}

func (s *adminService) ComputeGroupMovements(ctx context.Context, phaseCode string) ([]models.Reassignment, error) {
	return s.computeMovements(ctx, nil, phaseCode)
}

func (s *adminService) computeMovements(ctx context.Context, exec repositories.SQLExecutor, phaseCode string) ([]models.Reassignment, error) {
	players, err := s.playerRepo.ListAll(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	wins, err := s.matchRepo.CountConfirmedWinsByPhase(ctx, exec, phaseCode)
	if err != nil {
		return nil, err
	}
	return league.ComputeGroupMovements(players, wins), nil
}

func (s *adminService) AdvancePhaseForCurrentYear(ctx context.Context) (string, error) {
	var next string
	err := s.tx.WithinTx(ctx, serializable, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.LockPhaseAdvancement(ctx, exec); err != nil {
			return err
		}
		var err error
		next, err = s.advance(ctx, exec)
		return err
	})
	if err != nil {
		return "", err
	}
	s.logger.Info("phase advanced", slog.String("phase_code", next))
	return next, nil
}

// advance mints the next phase code of the current year and assigns it to every player.
func (s *adminService) advance(ctx context.Context, exec repositories.SQLExecutor) (string, error) {
	codes, err := s.playerRepo.ListDistinctPhaseCodes(ctx, exec)
	if err != nil {
		return "", err
	}
	next := league.NextPhaseCode(codes, s.now().Year()).String()
	if _, err := s.playerRepo.SetPhaseForAll(ctx, exec, next); err != nil {
		return "", err
	}
	return next, nil
}

func (s *adminService) MatchesSummary(ctx context.Context, phaseCode string) (*models.MatchesSummary, error) {
	players, err := s.playerRepo.ListByPhase(ctx, nil, phaseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load players of phase %s: %w", phaseCode, err)
	}
	views, err := s.matchRepo.ListViews(ctx, nil, models.MatchFilter{PhaseCode: &phaseCode})
	if err != nil {
		return nil, fmt.Errorf("failed to load matches of phase %s: %w", phaseCode, err)
	}

	groups := league.GroupPlayers(players)
	expected := 0
	for _, members := range groups {
		expected += league.ExpectedMatches(len(members))
	}

	matches := make([]models.Match, 0, len(views))
	existing := 0
	for _, v := range views {
		matches = append(matches, v.Match)
		if v.Status != models.MatchStatusCancelled {
			existing++
		}
	}

	return &models.MatchesSummary{
		PhaseCode:       phaseCode,
		ExpectedMatches: expected,
		ExistingMatches: existing,
		Matches:         views,
		MissingPairings: league.MissingPairings(groups, matches),
	}, nil
}

func (s *adminService) ConfirmAll(ctx context.Context, adminLicense, phaseCode string) (int64, error) {
	if phaseCode == "" {
		return 0, fmt.Errorf("%w: phase is required", ErrValidationFailed)
	}
	var confirmed int64
	err := s.tx.WithinTx(ctx, nil, func(exec repositories.SQLExecutor) error {
		var err error
		confirmed, err = s.matchRepo.ConfirmAllPending(ctx, exec, phaseCode, adminLicense)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("pending matches confirmed in bulk",
		slog.String("phase_code", phaseCode),
		slog.String("license", adminLicense),
		slog.Int64("confirmed", confirmed),
	)
	if s.recorder != nil {
		for i := int64(0); i < confirmed; i++ {
			s.recorder.RecordMatchTransition(string(models.MatchStatusConfirmed))
		}
	}
	publish(s.publisher, events.MatchesBulkConfirmed, phaseCode, map[string]int64{"confirmed": confirmed}, s.now())
	return confirmed, nil
}

func (s *adminService) ListPlayers(ctx context.Context) ([]models.PlayerGroupItem, error) {
	players, err := s.playerRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	items := make([]models.PlayerGroupItem, 0, len(players))
	for _, p := range players {
		items = append(items, models.PlayerGroupItem{
			LicenseNumber: p.LicenseNumber,
			FullName:      p.FullName(),
			GroupNo:       p.GroupNo,
			PhaseCode:     p.PhaseCode,
			Phone:         p.Phone,
		})
	}
	return items, nil
}

func (s *adminService) PhaseCodes(ctx context.Context) ([]string, error) {
	fromMatches, err := s.matchRepo.ListPhaseCodes(ctx, nil)
	if err != nil {
		return nil, err
	}
	fromPlayers, err := s.playerRepo.ListDistinctPhaseCodes(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sortPhaseCodes(append(fromMatches, fromPlayers...)), nil
}
