package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvasilje/murmur/internal/domain"
)

type MemberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

func (r *MemberRepo) Create(ctx context.Context, member *domain.Member) error {
	query := `
		INSERT INTO members (id, server_id, profile_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		member.ID, member.ServerID, member.ProfileID, member.Role, member.CreatedAt,
	)
	return mapErr(err)
}

func (r *MemberRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	query := `
		SELECT m.id, m.server_id, m.profile_id, m.role, m.created_at,
			p.username, p.display_name, p.avatar_url
		FROM members m
		JOIN profiles p ON m.profile_id = p.id
		WHERE m.id = $1`
	return r.scanMember(ctx, query, id)
}

func (r *MemberRepo) GetByServerAndProfile(ctx context.Context, serverID, profileID uuid.UUID) (*domain.Member, error) {
	query := `
		SELECT m.id, m.server_id, m.profile_id, m.role, m.created_at,
			p.username, p.display_name, p.avatar_url
		FROM members m
		JOIN profiles p ON m.profile_id = p.id
		WHERE m.server_id = $1 AND m.profile_id = $2`

	var m domain.Member
	err := r.pool.QueryRow(ctx, query, serverID, profileID).Scan(
		&m.ID, &m.ServerID, &m.ProfileID, &m.Role, &m.CreatedAt,
		&m.Username, &m.DisplayName, &m.AvatarURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}

func (r *MemberRepo) ListByServer(ctx context.Context, serverID uuid.UUID) ([]domain.Member, error) {
	query := `
		SELECT m.id, m.server_id, m.profile_id, m.role, m.created_at,
			p.username, p.display_name, p.avatar_url
		FROM members m
		JOIN profiles p ON m.profile_id = p.id
		WHERE m.server_id = $1
		ORDER BY m.created_at`

	rows, err := r.pool.Query(ctx, query, serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(
			&m.ID, &m.ServerID, &m.ProfileID, &m.Role, &m.CreatedAt,
			&m.Username, &m.DisplayName, &m.AvatarURL,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MemberRepo) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	_, err := r.pool.Exec(ctx, `UPDATE members SET role = $1 WHERE id = $2`, role, id)
	return err
}

func (r *MemberRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	return err
}

func (r *MemberRepo) scanMember(ctx context.Context, query string, arg any) (*domain.Member, error) {
	var m domain.Member
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&m.ID, &m.ServerID, &m.ProfileID, &m.Role, &m.CreatedAt,
		&m.Username, &m.DisplayName, &m.AvatarURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &m, err
}
