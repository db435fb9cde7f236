package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/in4everyall/tennisclub-league/models"
)

var (
	ErrMatchNotFound         = errors.New("match not found")
	ErrMatchVersionConflict  = errors.New("match was modified by another request")
	ErrMatchPendingDuplicate = errors.New("a pending match already exists for this pair")
	ErrMatchPlayerInvalid    = errors.New("match player conflict or invalid")
	ErrMatchStatusUnknown    = errors.New("match has an unknown status")
)

// phaseAdvanceLockKey serialises phase closes across every instance sharing the database.
const phaseAdvanceLockKey int64 = 0x7465_6e6e_6973

var matchColumns = []string{
	"m.id", "m.phase_code", "m.group_no_at_match", "m.player1_license", "m.player2_license",
	"m.winner_license", "m.set1_p1", "m.set1_p2", "m.set2_p1", "m.set2_p2", "m.set3_p1", "m.set3_p2",
	"m.submitted_by_license", "m.status", "m.version", "m.scheduled_at", "m.played_at",
	"m.updated_by", "m.created_at", "m.updated_at",
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	ListViews(ctx context.Context, exec SQLExecutor, filter models.MatchFilter) ([]models.MatchView, error)
	FindLatestBetween(ctx context.Context, exec SQLExecutor, phaseCode, player1, player2 string) (*models.Match, error)
	ExistsPendingBetween(ctx context.Context, exec SQLExecutor, phaseCode, player1, player2 string) (bool, error)
	CountConfirmedWinsByPhase(ctx context.Context, exec SQLExecutor, phaseCode string) (map[string]int, error)
	CountByPhaseAndStatus(ctx context.Context, exec SQLExecutor, phaseCode string, status models.MatchStatus) (int, error)
	ListConfirmedByPhaseAndPlayers(ctx context.Context, exec SQLExecutor, phaseCode string, licenses []string) ([]models.Match, error)
	ListConfirmedByPhaseAndHistoricalGroup(ctx context.Context, exec SQLExecutor, phaseCode string, groupNo int) ([]models.Match, error)
	ConfirmAllPending(ctx context.Context, exec SQLExecutor, phaseCode, updatedBy string) (int64, error)
	ListPhaseCodes(ctx context.Context, exec SQLExecutor) ([]string, error)
	ListPhaseCodesForPlayer(ctx context.Context, exec SQLExecutor, license string) ([]string, error)
	LockPhaseAdvancement(ctx context.Context, exec SQLExecutor) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	if match.Status == "" {
		match.Status = models.MatchStatusPending
	}
	match.Version = 1

	q := psql.Insert("matches").
		Columns(
			"id", "phase_code", "group_no_at_match", "player1_license", "player2_license", "winner_license",
			"set1_p1", "set1_p2", "set2_p1", "set2_p2", "set3_p1", "set3_p2",
			"submitted_by_license", "status", "version", "scheduled_at", "played_at", "updated_by",
		).
		Values(
			match.ID, match.PhaseCode, match.GroupNoAtMatch, match.Player1License, match.Player2License, match.WinnerLicense,
			match.Sets[0].P1, match.Sets[0].P2, match.Sets[1].P1, match.Sets[1].P2, match.Sets[2].P1, match.Sets[2].P2,
			match.SubmittedByLicense, match.Status, match.Version, match.ScheduledAt, match.PlayedAt, match.UpdatedBy,
		).
		Suffix("RETURNING created_at, updated_at")

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert match query: %w", err)
	}

	err = r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(&match.CreatedAt, &match.UpdatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error) {
	row, err := qRow(ctx, r.getExecutor(exec), psql.Select(matchColumns...).From("matches m").Where(sq.Eq{"m.id": id}))
	if err != nil {
		return nil, err
	}

	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", id, err)
	}
	return match, nil
}

// Update writes the mutable fields of a match when its version is still the one that was read.
// On success the match carries its new version.
func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	q := psql.Update("matches").
		SetMap(map[string]interface{}{
			"player1_license": match.Player1License,
			"player2_license": match.Player2License,
			"winner_license":  match.WinnerLicense,
			"set1_p1":         match.Sets[0].P1,
			"set1_p2":         match.Sets[0].P2,
			"set2_p1":         match.Sets[1].P1,
			"set2_p2":         match.Sets[1].P2,
			"set3_p1":         match.Sets[2].P1,
			"set3_p2":         match.Sets[2].P2,
			"status":          match.Status,
			"scheduled_at":    match.ScheduledAt,
			"played_at":       match.PlayedAt,
			"updated_by":      match.UpdatedBy,
			"version":         sq.Expr("version + 1"),
			"updated_at":      sq.Expr("now()"),
		}).
		Where(sq.Eq{"id": match.ID, "version": match.Version}).
		Suffix("RETURNING version, updated_at")

	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update match query: %w", err)
	}

	err = r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(&match.Version, &match.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: match %s at version %d", ErrMatchVersionConflict, match.ID, match.Version)
	}
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) ListViews(ctx context.Context, exec SQLExecutor, filter models.MatchFilter) ([]models.MatchView, error) {
	columns := append([]string{}, matchColumns...)
	columns = append(columns,
		"COALESCE(m.group_no_at_match, p1.group_no, p2.group_no)",
		"TRIM(COALESCE(u1.first_name, '') || ' ' || COALESCE(u1.last_name, ''))",
		"TRIM(COALESCE(u2.first_name, '') || ' ' || COALESCE(u2.last_name, ''))",
		"TRIM(COALESCE(uw.first_name, '') || ' ' || COALESCE(uw.last_name, ''))",
	)

	q := psql.Select(columns...).
		From("matches m").
		LeftJoin("players p1 ON p1.license_number = m.player1_license").
		LeftJoin("players p2 ON p2.license_number = m.player2_license").
		LeftJoin("users u1 ON u1.license_number = m.player1_license").
		LeftJoin("users u2 ON u2.license_number = m.player2_license").
		LeftJoin("users uw ON uw.license_number = m.winner_license").
		OrderBy("COALESCE(m.played_at, m.scheduled_at, m.created_at) DESC", "m.created_at DESC")

	if filter.PhaseCode != nil {
		q = q.Where(sq.Eq{"m.phase_code": *filter.PhaseCode})
	}
	if filter.License != nil {
		q = q.Where(sq.Or{
			sq.Eq{"m.player1_license": *filter.License},
			sq.Eq{"m.player2_license": *filter.License},
		})
	}
	if filter.Status != nil {
		q = q.Where(sq.Eq{"m.status": *filter.Status})
	}

	rows, err := qQuery(ctx, r.getExecutor(exec), q)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	views := make([]models.MatchView, 0)
	for rows.Next() {
		var v models.MatchView
		var winnerName string
		dest := append(matchScanDest(&v.Match), &v.GroupNo, &v.Player1Name, &v.Player2Name, &winnerName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan match view row: %w", err)
		}
		if err := checkStatus(&v.Match); err != nil {
			return nil, err
		}
		v.Player1Name = displayName(v.Player1Name, v.Player1License)
		v.Player2Name = displayName(v.Player2Name, v.Player2License)
		if v.WinnerLicense != nil {
			v.WinnerName = displayName(winnerName, *v.WinnerLicense)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return views, nil
}

func (r *postgresMatchRepository) FindLatestBetween(ctx context.Context, exec SQLExecutor, phaseCode, player1, player2 string) (*models.Match, error) {
	q := psql.Select(matchColumns...).
		From("matches m").
		Where(sq.Eq{"m.phase_code": phaseCode}).
		Where(pairCondition(player1, player2)).
		OrderBy("m.created_at DESC").
		Limit(1)

	row, err := qRow(ctx, r.getExecutor(exec), q)
	if err != nil {
		return nil, err
	}
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match between %s and %s: %w", player1, player2, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ExistsPendingBetween(ctx context.Context, exec SQLExecutor, phaseCode, player1, player2 string) (bool, error) {
	q := psql.Select("1").
		From("matches m").
		Where(sq.Eq{"m.phase_code": phaseCode, "m.status": models.MatchStatusPending}).
		Where(pairCondition(player1, player2)).
		Prefix("SELECT EXISTS (").
		Suffix(")")

	row, err := qRow(ctx, r.getExecutor(exec), q)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check pending match: %w", err)
	}
	return exists, nil
}

func (r *postgresMatchRepository) CountConfirmedWinsByPhase(ctx context.Context, exec SQLExecutor, phaseCode string) (map[string]int, error) {
	q := psql.Select("m.winner_license", "COUNT(*)").
		From("matches m").
		Where(sq.Eq{"m.phase_code": phaseCode, "m.status": models.MatchStatusConfirmed}).
		Where(sq.NotEq{"m.winner_license": nil}).
		GroupBy("m.winner_license")

	rows, err := qQuery(ctx, r.getExecutor(exec), q)
	if err != nil {
		return nil, fmt.Errorf("failed to count wins for phase %s: %w", phaseCode, err)
	}
	defer rows.Close()

	wins := make(map[string]int)
	for rows.Next() {
		var license string
		var n int
		if err := rows.Scan(&license, &n); err != nil {
			return nil, fmt.Errorf("failed to scan win count: %w", err)
		}
		wins[license] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during win count iteration: %w", err)
	}
	return wins, nil
}

func (r *postgresMatchRepository) CountByPhaseAndStatus(ctx context.Context, exec SQLExecutor, phaseCode string, status models.MatchStatus) (int, error) {
	q := psql.Select("COUNT(*)").
		From("matches m").
		Where(sq.Eq{"m.phase_code": phaseCode, "m.status": status})

	row, err := qRow(ctx, r.getExecutor(exec), q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s matches of phase %s: %w", status, phaseCode, err)
	}
	return n, nil
}

func (r *postgresMatchRepository) ListConfirmedByPhaseAndPlayers(ctx context.Context, exec SQLExecutor, phaseCode string, licenses []string) ([]models.Match, error) {
	if len(licenses) == 0 {
		return []models.Match{}, nil
	}
	q := psql.Select(matchColumns...).
		From("matches m").
		Where(sq.Eq{
			"m.phase_code":      phaseCode,
			"m.status":          models.MatchStatusConfirmed,
			"m.player1_license": licenses,
			"m.player2_license": licenses,
		}).
		OrderBy("m.created_at")
	return r.listMatches(ctx, exec, q)
}

func (r *postgresMatchRepository) ListConfirmedByPhaseAndHistoricalGroup(ctx context.Context, exec SQLExecutor, phaseCode string, groupNo int) ([]models.Match, error) {
	q := psql.Select(matchColumns...).
		From("matches m").
		Where(sq.Eq{
			"m.phase_code":        phaseCode,
			"m.status":            models.MatchStatusConfirmed,
			"m.group_no_at_match": groupNo,
		}).
		OrderBy("m.created_at")
	return r.listMatches(ctx, exec, q)
}

func (r *postgresMatchRepository) listMatches(ctx context.Context, exec SQLExecutor, q sq.SelectBuilder) ([]models.Match, error) {
	rows, err := qQuery(ctx, r.getExecutor(exec), q)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(matchScanDest(&m)...); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		if err := checkStatus(&m); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ConfirmAllPending(ctx context.Context, exec SQLExecutor, phaseCode, updatedBy string) (int64, error) {
	q := psql.Update("matches").
		Set("status", models.MatchStatusConfirmed).
		Set("updated_by", updatedBy).
		Set("version", sq.Expr("version + 1")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"phase_code": phaseCode, "status": models.MatchStatusPending})

	result, err := qExec(ctx, r.getExecutor(exec), q)
	if err != nil {
		return 0, fmt.Errorf("failed to confirm pending matches of phase %s: %w", phaseCode, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}

func (r *postgresMatchRepository) ListPhaseCodes(ctx context.Context, exec SQLExecutor) ([]string, error) {
	q := psql.Select("DISTINCT m.phase_code").From("matches m").OrderBy("m.phase_code")
	rows, err := qQuery(ctx, r.getExecutor(exec), q)
	if err != nil {
		return nil, fmt.Errorf("failed to list phase codes: %w", err)
	}
	return scanStrings(rows)
}

func (r *postgresMatchRepository) ListPhaseCodesForPlayer(ctx context.Context, exec SQLExecutor, license string) ([]string, error) {
	q := psql.Select("DISTINCT m.phase_code").
		From("matches m").
		Where(sq.Or{sq.Eq{"m.player1_license": license}, sq.Eq{"m.player2_license": license}}).
		OrderBy("m.phase_code")
	rows, err := qQuery(ctx, r.getExecutor(exec), q)
	if err != nil {
		return nil, fmt.Errorf("failed to list phase codes of %s: %w", license, err)
	}
	return scanStrings(rows)
}

// LockPhaseAdvancement takes a transaction-scoped advisory lock. It must run inside a transaction.
func (r *postgresMatchRepository) LockPhaseAdvancement(ctx context.Context, exec SQLExecutor) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, phaseAdvanceLockKey); err != nil {
		return fmt.Errorf("failed to acquire phase advancement lock: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if code, constraint, ok := pqConstraint(err); ok {
		switch code {
		case pqUniqueViolation:
			if constraint == "matches_pending_pair_key" {
				return ErrMatchPendingDuplicate
			}
		case pqForeignKeyViolation:
			if constraint == "matches_player1_fkey" || constraint == "matches_player2_fkey" {
				return ErrMatchPlayerInvalid
			}
		case pqCheckViolation:
			if constraint == "matches_distinct_players" {
				return ErrMatchPlayerInvalid
			}
		}
	}
	return fmt.Errorf("match query failed: %w", err)
}

func pairCondition(player1, player2 string) sq.Or {
	return sq.Or{
		sq.Eq{"m.player1_license": player1, "m.player2_license": player2},
		sq.Eq{"m.player1_license": player2, "m.player2_license": player1},
	}
}

func matchScanDest(m *models.Match) []interface{} {
	return []interface{}{
		&m.ID,
		&m.PhaseCode,
		&m.GroupNoAtMatch,
		&m.Player1License,
		&m.Player2License,
		&m.WinnerLicense,
		&m.Sets[0].P1, &m.Sets[0].P2,
		&m.Sets[1].P1, &m.Sets[1].P2,
		&m.Sets[2].P1, &m.Sets[2].P2,
		&m.SubmittedByLicense,
		&m.Status,
		&m.Version,
		&m.ScheduledAt,
		&m.PlayedAt,
		&m.UpdatedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	}
}

func scanMatch(row *sql.Row) (*models.Match, error) {
	var m models.Match
	if err := row.Scan(matchScanDest(&m)...); err != nil {
		return nil, err
	}
	if err := checkStatus(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func checkStatus(m *models.Match) error {
	if !m.Status.Valid() {
		return fmt.Errorf("%w: %q on match %s", ErrMatchStatusUnknown, m.Status, m.ID)
	}
	return nil
}

func displayName(name, license string) string {
	if strings.TrimSpace(name) == "" {
		return license
	}
	return name
}
