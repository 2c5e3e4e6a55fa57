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

type DirectMessageRepo struct {
	pool *pgxpool.Pool
}

func NewDirectMessageRepo(pool *pgxpool.Pool) *DirectMessageRepo {
	return &DirectMessageRepo{pool: pool}
}

func (r *DirectMessageRepo) Create(ctx context.Context, msg *domain.DirectMessage) error {
	query := `
		INSERT INTO direct_messages (id, conversation_id, member_id, content, file_url, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.MemberID, msg.Content, msg.FileURL,
		msg.Deleted, msg.CreatedAt, msg.UpdatedAt,
	)
	return err
}

func (r *DirectMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DirectMessage, error) {
	query := `
		SELECT m.id, m.conversation_id, m.member_id, m.content, m.file_url, m.deleted,
			m.created_at, m.updated_at, p.username, p.display_name, p.avatar_url, mb.role
		FROM direct_messages m
		JOIN members mb ON m.member_id = mb.id
		JOIN profiles p ON mb.profile_id = p.id
		WHERE m.id = $1`
	var msg domain.DirectMessage
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ConversationID, &msg.MemberID, &msg.Content, &msg.FileURL, &msg.Deleted,
		&msg.CreatedAt, &msg.UpdatedAt,
		&msg.SenderUsername, &msg.SenderDisplayName, &msg.SenderAvatarURL, &msg.SenderRole,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &msg, err
}

func (r *DirectMessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.DirectMessage, error) {
	var query string
	var args []any

	if cursor != nil {
		query = `
			SELECT m.id, m.conversation_id, m.member_id, m.content, m.file_url, m.deleted,
				m.created_at, m.updated_at, p.username, p.display_name, p.avatar_url, mb.role
			FROM direct_messages m
			JOIN members mb ON m.member_id = mb.id
			JOIN profiles p ON mb.profile_id = p.id
			WHERE m.conversation_id = $1
				AND (m.created_at, m.id) < (SELECT created_at, id FROM direct_messages WHERE id = $2)
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $3`
		args = []any{conversationID, *cursor, limit}
	} else {
		query = `
			SELECT m.id, m.conversation_id, m.member_id, m.content, m.file_url, m.deleted,
				m.created_at, m.updated_at, p.username, p.display_name, p.avatar_url, mb.role
			FROM direct_messages m
			JOIN members mb ON m.member_id = mb.id
			JOIN profiles p ON mb.profile_id = p.id
			WHERE m.conversation_id = $1
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $2`
		args = []any{conversationID, limit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.DirectMessage
	for rows.Next() {
		var msg domain.DirectMessage
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.MemberID, &msg.Content, &msg.FileURL, &msg.Deleted,
			&msg.CreatedAt, &msg.UpdatedAt,
			&msg.SenderUsername, &msg.SenderDisplayName, &msg.SenderAvatarURL, &msg.SenderRole,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *DirectMessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE direct_messages SET deleted = TRUE, content = $1, file_url = NULL, updated_at = $2 WHERE id = $3`
	_, err := r.pool.Exec(ctx, query, domain.DeletedMessageContent, time.Now(), id)
	return err
}
