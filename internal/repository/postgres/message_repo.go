package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvasilje/murmur/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, member_id, content, file_url, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ChannelID, msg.MemberID, msg.Content, msg.FileURL,
		msg.Deleted, msg.CreatedAt, msg.UpdatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT m.id, m.channel_id, m.member_id, m.content, m.file_url, m.deleted,
			m.created_at, m.updated_at, p.username, p.display_name, p.avatar_url, mb.role
		FROM messages m
		JOIN members mb ON m.member_id = mb.id
		JOIN profiles p ON mb.profile_id = p.id
		WHERE m.id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ChannelID, &msg.MemberID, &msg.Content, &msg.FileURL, &msg.Deleted,
		&msg.CreatedAt, &msg.UpdatedAt,
		&msg.SenderUsername, &msg.SenderDisplayName, &msg.SenderAvatarURL, &msg.SenderRole,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

// ListByChannel pages backwards through a channel in (created_at DESC,
// id DESC) order. With a cursor it returns rows strictly after the
// cursor row; a dangling cursor makes the tuple subquery empty, so the
// comparison is NULL and the page comes back empty instead of erroring.
func (r *MessageRepo) ListByChannel(ctx context.Context, channelID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Message, error) {
	var query string
	var args []any

	if cursor != nil {
		query = `
			SELECT m.id, m.channel_id, m.member_id, m.content, m.file_url, m.deleted,
				m.created_at, m.updated_at, p.username, p.display_name, p.avatar_url, mb.role
			FROM messages m
			JOIN members mb ON m.member_id = mb.id
			JOIN profiles p ON mb.profile_id = p.id
			WHERE m.channel_id = $1
				AND (m.created_at, m.id) < (SELECT created_at, id FROM messages WHERE id = $2)
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $3`
		args = []any{channelID, *cursor, limit}
	} else {
		query = `
			SELECT m.id, m.channel_id, m.member_id, m.content, m.file_url, m.deleted,
				m.created_at, m.updated_at, p.username, p.display_name, p.avatar_url, mb.role
			FROM messages m
			JOIN members mb ON m.member_id = mb.id
			JOIN profiles p ON mb.profile_id = p.id
			WHERE m.channel_id = $1
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $2`
		args = []any{channelID, limit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.ChannelID, &msg.MemberID, &msg.Content, &msg.FileURL, &msg.Deleted,
			&msg.CreatedAt, &msg.UpdatedAt,
			&msg.SenderUsername, &msg.SenderDisplayName, &msg.SenderAvatarURL, &msg.SenderRole,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// SoftDelete keeps the row and replaces its body with the sentinel so
// existing pagination cursors stay valid.
func (r *MessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE messages SET deleted = TRUE, content = $1, file_url = NULL, updated_at = $2 WHERE id = $3`
	_, err := r.pool.Exec(ctx, query, domain.DeletedMessageContent, time.Now(), id)
	return err
}
