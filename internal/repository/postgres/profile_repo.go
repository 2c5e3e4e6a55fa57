package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvasilje/murmur/internal/domain"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (id, email, username, display_name, password_hash, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		profile.ID, profile.Email, profile.Username, profile.DisplayName,
		profile.PasswordHash, profile.AvatarURL, profile.CreatedAt, profile.UpdatedAt,
	)
	return mapErr(err)
}

func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	return r.scanProfile(ctx, "SELECT id, email, username, display_name, password_hash, avatar_url, created_at, updated_at FROM profiles WHERE id = $1", id)
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.scanProfile(ctx, "SELECT id, email, username, display_name, password_hash, avatar_url, created_at, updated_at FROM profiles WHERE email = $1", email)
}

func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	return r.scanProfile(ctx, "SELECT id, email, username, display_name, password_hash, avatar_url, created_at, updated_at FROM profiles WHERE username = $1", username)
}

func (r *ProfileRepo) scanProfile(ctx context.Context, query string, arg any) (*domain.Profile, error) {
	var p domain.Profile
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Email, &p.Username, &p.DisplayName,
		&p.PasswordHash, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &p, err
}
