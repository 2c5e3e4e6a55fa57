package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvasilje/murmur/internal/domain"
)

type ServerRepo struct {
	pool *pgxpool.Pool
}

func NewServerRepo(pool *pgxpool.Pool) *ServerRepo {
	return &ServerRepo{pool: pool}
}

// Create inserts the server, its owner member and the default channel
// atomically. A server must never exist without its landing channel.
func (r *ServerRepo) Create(ctx context.Context, server *domain.Server, owner *domain.Member, defaultChannel *domain.Channel) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO servers (id, name, image_url, invite_code, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		server.ID, server.Name, server.ImageURL, server.InviteCode, server.OwnerID, server.CreatedAt,
	)
	if err != nil {
		return mapErr(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO members (id, server_id, profile_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		owner.ID, owner.ServerID, owner.ProfileID, owner.Role, owner.CreatedAt,
	)
	if err != nil {
		return mapErr(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO channels (id, server_id, name, type, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		defaultChannel.ID, defaultChannel.ServerID, defaultChannel.Name, defaultChannel.Type,
		defaultChannel.CreatedBy, defaultChannel.CreatedAt, defaultChannel.UpdatedAt,
	)
	if err != nil {
		return mapErr(err)
	}

	return tx.Commit(ctx)
}

func (r *ServerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Server, error) {
	return r.scanServer(ctx, "SELECT id, name, image_url, invite_code, owner_id, created_at FROM servers WHERE id = $1", id)
}

func (r *ServerRepo) GetByInviteCode(ctx context.Context, code string) (*domain.Server, error) {
	return r.scanServer(ctx, "SELECT id, name, image_url, invite_code, owner_id, created_at FROM servers WHERE invite_code = $1", code)
}

func (r *ServerRepo) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Server, error) {
	query := `
		SELECT s.id, s.name, s.image_url, s.invite_code, s.owner_id, s.created_at
		FROM servers s
		JOIN members m ON m.server_id = s.id
		WHERE m.profile_id = $1
		ORDER BY s.created_at`

	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []domain.Server
	for rows.Next() {
		var s domain.Server
		if err := rows.Scan(&s.ID, &s.Name, &s.ImageURL, &s.InviteCode, &s.OwnerID, &s.CreatedAt); err != nil {
			return nil, err
		}
		servers = append(servers, s)
	}
	return servers, rows.Err()
}

func (r *ServerRepo) UpdateInviteCode(ctx context.Context, id uuid.UUID, code string) error {
	_, err := r.pool.Exec(ctx, `UPDATE servers SET invite_code = $1 WHERE id = $2`, code, id)
	return err
}

func (r *ServerRepo) scanServer(ctx context.Context, query string, arg any) (*domain.Server, error) {
	var s domain.Server
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.Name, &s.ImageURL, &s.InviteCode, &s.OwnerID, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &s, err
}
