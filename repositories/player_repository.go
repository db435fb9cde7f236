package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/in4everyall/tennisclub-league/models"
	"github.com/lib/pq"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	GetByLicense(ctx context.Context, exec SQLExecutor, license string) (*models.Player, error)
	ListByGroupAndPhase(ctx context.Context, exec SQLExecutor, groupNo int, phaseCode string) ([]models.Player, error)
	ListByPhase(ctx context.Context, exec SQLExecutor, phaseCode string) ([]models.Player, error)
	ListByLicenses(ctx context.Context, exec SQLExecutor, licenses []string) ([]models.Player, error)
	ListAll(ctx context.Context, exec SQLExecutor) ([]models.Player, error)
	UpdateGroup(ctx context.Context, exec SQLExecutor, license string, groupNo int) error
	SetPhaseForAll(ctx context.Context, exec SQLExecutor, phaseCode string) (int64, error)
	ListDistinctPhaseCodes(ctx context.Context, exec SQLExecutor) ([]string, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerSelect = `
		SELECT p.license_number, COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
		       p.group_no, p.phase_code, p.phone
		FROM players p
		LEFT JOIN users u ON u.license_number = p.license_number`

func (r *postgresPlayerRepository) GetByLicense(ctx context.Context, exec SQLExecutor, license string) (*models.Player, error) {
	query := playerSelect + `
		WHERE p.license_number = $1`

	var p models.Player
	err := r.getExecutor(exec).QueryRowContext(ctx, query, license).Scan(
		&p.LicenseNumber,
		&p.FirstName,
		&p.LastName,
		&p.GroupNo,
		&p.PhaseCode,
		&p.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %s: %w", license, err)
	}
	return &p, nil
}

func (r *postgresPlayerRepository) ListByGroupAndPhase(ctx context.Context, exec SQLExecutor, groupNo int, phaseCode string) ([]models.Player, error) {
	query := playerSelect + `
		WHERE p.group_no = $1 AND p.phase_code = $2
		ORDER BY p.license_number`
	return r.list(ctx, exec, query, groupNo, phaseCode)
}

func (r *postgresPlayerRepository) ListByPhase(ctx context.Context, exec SQLExecutor, phaseCode string) ([]models.Player, error) {
	query := playerSelect + `
		WHERE p.phase_code = $1
		ORDER BY p.group_no, p.license_number`
	return r.list(ctx, exec, query, phaseCode)
}

func (r *postgresPlayerRepository) ListByLicenses(ctx context.Context, exec SQLExecutor, licenses []string) ([]models.Player, error) {
	if len(licenses) == 0 {
		return []models.Player{}, nil
	}
	query := playerSelect + `
		WHERE p.license_number = ANY($1)
		ORDER BY p.license_number`
	return r.list(ctx, exec, query, pq.Array(licenses))
}

func (r *postgresPlayerRepository) ListAll(ctx context.Context, exec SQLExecutor) ([]models.Player, error) {
	query := playerSelect + `
		ORDER BY p.group_no, p.license_number`
	return r.list(ctx, exec, query)
}

func (r *postgresPlayerRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.LicenseNumber, &p.FirstName, &p.LastName, &p.GroupNo, &p.PhaseCode, &p.Phone); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) UpdateGroup(ctx context.Context, exec SQLExecutor, license string, groupNo int) error {
	query := `UPDATE players SET group_no = $1 WHERE license_number = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, groupNo, license)
	if err != nil {
		return fmt.Errorf("failed to update group of player %s: %w", license, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) SetPhaseForAll(ctx context.Context, exec SQLExecutor, phaseCode string) (int64, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE players SET phase_code = $1`, phaseCode)
	if err != nil {
		return 0, fmt.Errorf("failed to roll players over to phase %s: %w", phaseCode, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}

func (r *postgresPlayerRepository) ListDistinctPhaseCodes(ctx context.Context, exec SQLExecutor) ([]string, error) {
	query := `SELECT DISTINCT phase_code FROM players WHERE phase_code <> '' ORDER BY phase_code`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list player phase codes: %w", err)
	}
	return scanStrings(rows)
}
