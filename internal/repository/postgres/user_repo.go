package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vedran77/receptionist/internal/domain"
	"github.com/vedran77/receptionist/internal/repository"
)

type UserRepo struct {
	db DBTX
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, email, password_hash, business_name, full_name, phone_number, address,
	city, state, zip_code, country, logo_url, business_type, theme, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	p := user.Profile
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash,
		p.BusinessName, p.FullName, p.PhoneNumber, p.Address,
		p.City, p.State, p.ZipCode, p.Country, p.LogoURL, p.BusinessType, p.Theme,
		user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateEmail
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// GetByEmail matches case-insensitively, mirroring the unique index on lower(email).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users SET
			business_name = $2, full_name = $3, phone_number = $4, address = $5,
			city = $6, state = $7, zip_code = $8, country = $9, logo_url = $10,
			business_type = $11, theme = $12, updated_at = $13
		WHERE id = $1`

	p := user.Profile
	tag, err := r.db.Exec(ctx, query,
		user.ID,
		p.BusinessName, p.FullName, p.PhoneNumber, p.Address,
		p.City, p.State, p.ZipCode, p.Country, p.LogoURL, p.BusinessType, p.Theme,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating profile of user %s: %w", user.ID, repository.ErrNotFound)
	}
	return nil
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash,
		&u.BusinessName, &u.FullName, &u.PhoneNumber, &u.Address,
		&u.City, &u.State, &u.ZipCode, &u.Country, &u.LogoURL, &u.BusinessType, &u.Theme,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
