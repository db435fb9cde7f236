package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/in4everyall/tennisclub-league/events"
	"github.com/in4everyall/tennisclub-league/league"
	"github.com/in4everyall/tennisclub-league/models"
	"github.com/in4everyall/tennisclub-league/repositories"
)

type MatchService interface {
	SubmitMatch(ctx context.Context, submitterLicense string, input models.MatchInput) (*models.Match, error)
	AdminSubmitMatch(ctx context.Context, adminLicense string, input models.MatchInput) (*models.Match, error)
	ConfirmMatch(ctx context.Context, matchID uuid.UUID, confirmerLicense string) (*models.Match, error)
	RejectMatch(ctx context.Context, matchID uuid.UUID, rejecterLicense string) (*models.Match, error)
	CancelMatch(ctx context.Context, matchID uuid.UUID, adminLicense string) (*models.Match, error)
	ExistsPendingBetween(ctx context.Context, phaseCode, player1, player2 string) (bool, error)
	MatchesForPlayer(ctx context.Context, license, phaseCode string) ([]models.MatchView, error)
	AllMatchesForPlayer(ctx context.Context, license string) ([]models.MatchView, error)
	PhaseCodesForPlayer(ctx context.Context, license string) ([]string, error)
}

type matchService struct {
	tx         repositories.TxManager
	matchRepo  repositories.MatchRepository
	playerRepo repositories.PlayerRepository
	userRepo   repositories.UserRepository
	publisher  EventPublisher
	recorder   MetricsRecorder
	now        Clock
	logger     *slog.Logger
}

func NewMatchService(
	tx repositories.TxManager,
	matchRepo repositories.MatchRepository,
	playerRepo repositories.PlayerRepository,
	userRepo repositories.UserRepository,
	publisher EventPublisher,
	recorder MetricsRecorder,
	now Clock,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:         tx,
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		recorder:   recorder,
		now:        now,
		logger:     logger,
	}
}

// SubmitMatch records a result reported by player 1. The phase and the group at match time are
// always taken from player 1's current assignment, whatever the client sent.
func (s *matchService) SubmitMatch(ctx context.Context, submitterLicense string, input models.MatchInput) (*models.Match, error) {
	if err := validatePair(input.Player1License, input.Player2License); err != nil {
		return nil, err
	}
	if submitterLicense != input.Player1License {
		return nil, fmt.Errorf("%w: results must be submitted by player 1", ErrAddMatch)
	}

	var created *models.Match
	err := s.tx.WithinTx(ctx, nil, func(exec repositories.SQLExecutor) error {
		player1, err := s.loadParticipant(ctx, exec, input.Player1License)
		if err != nil {
			return err
		}
		if _, err := s.loadParticipant(ctx, exec, input.Player2License); err != nil {
			return err
		}
		phaseCode := player1.PhaseCode

		exists, err := s.matchRepo.ExistsPendingBetween(ctx, exec, phaseCode, input.Player1License, input.Player2License)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s vs %s in phase %s", ErrMatchAlreadyExists, input.Player1License, input.Player2License, phaseCode)
		}

		if err := league.ValidateSets(input.Sets); err != nil {
			return err
		}
		winner := normalizeWinner(input.WinnerLicense)
		if err := league.ValidateWinner(input.Player1License, input.Player2License, winner, input.Sets); err != nil {
			return err
		}

		match := &models.Match{
			PhaseCode:          phaseCode,
			GroupNoAtMatch:     groupPtr(player1.GroupNo),
			Player1License:     input.Player1License,
			Player2License:     input.Player2License,
			WinnerLicense:      winner,
			Sets:               input.Sets,
			SubmittedByLicense: player1.LicenseNumber,
			Status:             models.MatchStatusPending,
			ScheduledAt:        input.ScheduledAt,
			PlayedAt:           input.PlayedAt,
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return translateMatchWriteError(err)
		}
		created = match
		return nil
	})
	if err != nil {
		s.logRejection("match submission rejected", err, slog.String("license", submitterLicense))
		return nil, err
	}

	s.logger.Info("match submitted",
		slog.String("match_id", created.ID.String()),
		slog.String("phase_code", created.PhaseCode),
		slog.String("license", submitterLicense),
	)
	recordTransition(s.recorder, created.Status)
	publish(s.publisher, events.MatchSubmitted, created.PhaseCode, created, s.now())
	return created, nil
}

// AdminSubmitMatch corrects the latest match between two players in a phase and confirms it.
// The group at match time is never rewritten.
func (s *matchService) AdminSubmitMatch(ctx context.Context, adminLicense string, input models.MatchInput) (*models.Match, error) {
	if err := s.requireAdmin(ctx, adminLicense); err != nil {
		return nil, err
	}
	if err := validatePair(input.Player1License, input.Player2License); err != nil {
		return nil, err
	}
	if err := league.ValidateSets(input.Sets); err != nil {
		return nil, err
	}
	winner := normalizeWinner(input.WinnerLicense)
	if err := league.ValidateWinner(input.Player1License, input.Player2License, winner, input.Sets); err != nil {
		return nil, err
	}

	var corrected *models.Match
	err := s.tx.WithinTx(ctx, nil, func(exec repositories.SQLExecutor) error {
		player1, err := s.loadParticipant(ctx, exec, input.Player1License)
		if err != nil {
			return err
		}
		if _, err := s.loadParticipant(ctx, exec, input.Player2License); err != nil {
			return err
		}

		phaseCode := strings.TrimSpace(input.PhaseCode)
		if phaseCode == "" {
			phaseCode = player1.PhaseCode
		}

		existing, err := s.matchRepo.FindLatestBetween(ctx, exec, phaseCode, input.Player1License, input.Player2License)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return fmt.Errorf("%w: no previous match between %s and %s in phase %s", ErrAddMatch, input.Player1License, input.Player2License, phaseCode)
			}
			return err
		}

		existing.Player1License = input.Player1License
		existing.Player2License = input.Player2License
		existing.WinnerLicense = winner
		existing.Sets = input.Sets
		existing.Status = models.MatchStatusConfirmed
		existing.UpdatedBy = &adminLicense
		if input.ScheduledAt != nil {
			existing.ScheduledAt = input.ScheduledAt
		}
		playedAt := s.now()
		if input.PlayedAt != nil {
			playedAt = *input.PlayedAt
		}
		existing.PlayedAt = &playedAt

		if err := s.matchRepo.Update(ctx, exec, existing); err != nil {
			return translateMatchWriteError(err)
		}
		corrected = existing
		return nil
	})
	if err != nil {
		s.logRejection("admin correction rejected", err, slog.String("license", adminLicense))
		return nil, err
	}

	s.logger.Info("match corrected by admin",
		slog.String("match_id", corrected.ID.String()),
		slog.String("phase_code", corrected.PhaseCode),
		slog.String("license", adminLicense),
	)
	recordTransition(s.recorder, corrected.Status)
	publish(s.publisher, events.MatchCorrected, corrected.PhaseCode, corrected, s.now())
	return corrected, nil
}

func (s *matchService) ConfirmMatch(ctx context.Context, matchID uuid.UUID, confirmerLicense string) (*models.Match, error) {
	return s.resolve(ctx, matchID, confirmerLicense, models.MatchStatusConfirmed, events.MatchConfirmed)
}

func (s *matchService) RejectMatch(ctx context.Context, matchID uuid.UUID, rejecterLicense string) (*models.Match, error) {
	return s.resolve(ctx, matchID, rejecterLicense, models.MatchStatusRejected, events.MatchRejected)
}

// resolve moves a pending match to confirmed or rejected on behalf of anyone but its submitter.
func (s *matchService) resolve(ctx context.Context, matchID uuid.UUID, actor string, target models.MatchStatus, eventType string) (*models.Match, error) {
	var resolved *models.Match
	err := s.tx.WithinTx(ctx, nil, func(exec repositories.SQLExecutor) error {
		match, err := s.loadMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchStatusPending {
			return fmt.Errorf("%w: match is already %s", ErrConfirmMatch, match.Status)
		}
		if match.SubmittedByLicense == actor {
			return fmt.Errorf("%w: the submitter cannot %s their own result", ErrConfirmMatch, verbFor(target))
		}

		match.Status = target
		match.UpdatedBy = &actor
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return translateMatchWriteError(err)
		}
		resolved = match
		return nil
	})
	if err != nil {
		s.logRejection("match resolution rejected", err,
			slog.String("match_id", matchID.String()),
			slog.String("license", actor),
			slog.String("target", string(target)),
		)
		return nil, err
	}

	s.logger.Info("match resolved",
		slog.String("match_id", resolved.ID.String()),
		slog.String("phase_code", resolved.PhaseCode),
		slog.String("status", string(resolved.Status)),
		slog.String("license", actor),
	)
	recordTransition(s.recorder, resolved.Status)
	publish(s.publisher, eventType, resolved.PhaseCode, resolved, s.now())
	return resolved, nil
}

func (s *matchService) CancelMatch(ctx context.Context, matchID uuid.UUID, adminLicense string) (*models.Match, error) {
	if err := s.requireAdmin(ctx, adminLicense); err != nil {
		s.logRejection("match cancellation rejected", err, slog.String("license", adminLicense))
		return nil, err
	}

	var cancelled *models.Match
	err := s.tx.WithinTx(ctx, nil, func(exec repositories.SQLExecutor) error {
		match, err := s.loadMatch(ctx, exec, matchID)
		if err != nil {
			return err
		}
		switch match.Status {
		case models.MatchStatusConfirmed:
			return fmt.Errorf("%w: a confirmed match cannot be cancelled", ErrCancelMatch)
		case models.MatchStatusCancelled:
			return fmt.Errorf("%w: the match is already cancelled", ErrCancelMatch)
		}

		match.Status = models.MatchStatusCancelled
		match.UpdatedBy = &adminLicense
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return translateMatchWriteError(err)
		}
		cancelled = match
		return nil
	})
	if err != nil {
		s.logRejection("match cancellation rejected", err,
			slog.String("match_id", matchID.String()),
			slog.String("license", adminLicense),
		)
		return nil, err
	}

	s.logger.Info("match cancelled",
		slog.String("match_id", cancelled.ID.String()),
		slog.String("phase_code", cancelled.PhaseCode),
		slog.String("license", adminLicense),
	)
	recordTransition(s.recorder, cancelled.Status)
	publish(s.publisher, events.MatchCancelled, cancelled.PhaseCode, cancelled, s.now())
	return cancelled, nil
}

func (s *matchService) ExistsPendingBetween(ctx context.Context, phaseCode, player1, player2 string) (bool, error) {
	if strings.TrimSpace(phaseCode) == "" || player1 == "" || player2 == "" {
		return false, fmt.Errorf("%w: phase and both players are required", ErrValidationFailed)
	}
	return s.matchRepo.ExistsPendingBetween(ctx, nil, phaseCode, player1, player2)
}

func (s *matchService) MatchesForPlayer(ctx context.Context, license, phaseCode string) ([]models.MatchView, error) {
	filter := models.MatchFilter{License: &license}
	if phaseCode != "" {
		filter.PhaseCode = &phaseCode
	}
	return s.matchRepo.ListViews(ctx, nil, filter)
}

func (s *matchService) AllMatchesForPlayer(ctx context.Context, license string) ([]models.MatchView, error) {
	return s.matchRepo.ListViews(ctx, nil, models.MatchFilter{License: &license})
}

func (s *matchService) PhaseCodesForPlayer(ctx context.Context, license string) ([]string, error) {
	codes, err := s.matchRepo.ListPhaseCodesForPlayer(ctx, nil, license)
	if err != nil {
		return nil, err
	}
	return sortPhaseCodes(codes), nil
}

func (s *matchService) requireAdmin(ctx context.Context, license string) error {
	user, err := s.userRepo.GetByLicense(ctx, license)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("%w: unknown user %s", ErrForbiddenOperation, license)
		}
		return err
	}
	if user.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins can do this", ErrForbiddenOperation)
	}
	return nil
}

func (s *matchService) loadParticipant(ctx context.Context, exec repositories.SQLExecutor, license string) (*models.Player, error) {
	player, err := s.playerRepo.GetByLicense(ctx, exec, license)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, fmt.Errorf("%w: player %s not found", ErrAddMatch, license)
		}
		return nil, err
	}
	return player, nil
}

func (s *matchService) loadMatch(ctx context.Context, exec repositories.SQLExecutor, id uuid.UUID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, fmt.Errorf("%w: match %s", ErrNotFound, id)
		}
		return nil, err
	}
	return match, nil
}

// logRejection logs business-rule failures at Info and everything else at Error.
func (s *matchService) logRejection(msg string, err error, attrs ...any) {
	attrs = append(attrs, slog.Any("error", err))
	if isBusinessError(err) {
		s.logger.Info(msg, attrs...)
		return
	}
	s.logger.Error(msg, attrs...)
}

func validatePair(player1, player2 string) error {
	if strings.TrimSpace(player1) == "" || strings.TrimSpace(player2) == "" {
		return fmt.Errorf("%w: both players are required", ErrAddMatch)
	}
	if player1 == player2 {
		return fmt.Errorf("%w: a player cannot play against themselves", ErrAddMatch)
	}
	return nil
}

func translateMatchWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchVersionConflict):
		return fmt.Errorf("%w: %v", ErrMatchConflict, err)
	case errors.Is(err, repositories.ErrMatchPendingDuplicate):
		return fmt.Errorf("%w: %v", ErrMatchAlreadyExists, err)
	case errors.Is(err, repositories.ErrMatchPlayerInvalid):
		return fmt.Errorf("%w: %v", ErrAddMatch, err)
	}
	return err
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrValidationFailed, ErrForbiddenOperation, ErrAddMatch, ErrMatchAlreadyExists,
		ErrConfirmMatch, ErrCancelMatch, ErrMatchConflict, ErrPhaseNotReady,
		league.ErrInvalidSetScore, league.ErrWinnerMismatch, league.ErrInvalidPhaseCode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func groupPtr(groupNo int) *int {
	if groupNo <= 0 {
		return nil
	}
	return &groupNo
}

func verbFor(status models.MatchStatus) string {
	if status == models.MatchStatusRejected {
		return "reject"
	}
	return "confirm"
}
