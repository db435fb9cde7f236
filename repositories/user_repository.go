package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/in4everyall/tennisclub-league/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetByLicense(ctx context.Context, license string) (*models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetByLicense(ctx context.Context, license string) (*models.User, error) {
	query := `
		SELECT license_number, first_name, last_name, email, role, created_at
		FROM users
		WHERE license_number = $1`

	var u models.User
	err := r.db.QueryRowContext(ctx, query, license).Scan(
		&u.LicenseNumber,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.Role,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user %s: %w", license, err)
	}
	return &u, nil
}
