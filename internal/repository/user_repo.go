package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"calmspace/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByAuth(ctx context.Context, provider, subject string) (domain.User, error)
	UpdateName(ctx context.Context, id, displayName string) error
	VerifyEmail(ctx context.Context, id string, verifiedAt time.Time) error
	LinkOAuth(ctx context.Context, id, provider, subject string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, display_name, photo_url, auth_provider, auth_subject, password_hash, email_verified_at, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, display_name, photo_url, auth_provider, auth_subject, password_hash, email_verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PhotoURL,
		user.AuthProvider,
		user.AuthSubject,
		user.PasswordHash,
		user.EmailVerifiedAt,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByAuth(ctx context.Context, provider, subject string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE auth_provider = $1 AND auth_subject = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, provider, subject))
}

func (r *PgUserRepository) UpdateName(ctx context.Context, id, displayName string) error {
	const query = `UPDATE users SET display_name = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, displayName)
	return err
}

func (r *PgUserRepository) VerifyEmail(ctx context.Context, id string, verifiedAt time.Time) error {
	const query = `UPDATE users SET email_verified_at = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, verifiedAt)
	return err
}

func (r *PgUserRepository) LinkOAuth(ctx context.Context, id, provider, subject string) error {
	const query = `UPDATE users SET auth_provider = $2, auth_subject = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, provider, subject)
	return err
}

func (r *PgUserRepository) scanOne(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.DisplayName,
		&u.PhotoURL,
		&u.AuthProvider,
		&u.AuthSubject,
		&u.PasswordHash,
		&u.EmailVerifiedAt,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	return u, err
}
