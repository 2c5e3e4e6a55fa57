package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvasilje/murmur/internal/domain"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

const conversationSelect = `
	SELECT c.id, c.member_one_id, c.member_two_id, c.created_at,
		m1.id, m1.server_id, m1.profile_id, m1.role, m1.created_at,
		p1.username, p1.display_name, p1.avatar_url,
		m2.id, m2.server_id, m2.profile_id, m2.role, m2.created_at,
		p2.username, p2.display_name, p2.avatar_url
	FROM conversations c
	JOIN members m1 ON c.member_one_id = m1.id
	JOIN profiles p1 ON m1.profile_id = p1.id
	JOIN members m2 ON c.member_two_id = m2.id
	JOIN profiles p2 ON m2.profile_id = p2.id`

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, member_one_id, member_two_id, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.pool.Exec(ctx, query, conv.ID, conv.MemberOneID, conv.MemberTwoID, conv.CreatedAt)
	return mapErr(err)
}

func (r *ConversationRepo) GetByMembers(ctx context.Context, memberOneID, memberTwoID uuid.UUID) (*domain.Conversation, error) {
	return r.scanConversation(ctx, conversationSelect+`
		WHERE c.member_one_id = $1 AND c.member_two_id = $2`, memberOneID, memberTwoID)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return r.scanConversation(ctx, conversationSelect+` WHERE c.id = $1`, id)
}

func (r *ConversationRepo) ListByMember(ctx context.Context, memberID uuid.UUID) ([]domain.Conversation, error) {
	query := conversationSelect + `
		WHERE c.member_one_id = $1 OR c.member_two_id = $1
		ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		conv, err := scanConversationRow(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) scanConversation(ctx context.Context, query string, args ...any) (*domain.Conversation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}
	return scanConversationRow(rows)
}

func scanConversationRow(row pgx.Row) (*domain.Conversation, error) {
	var (
		conv domain.Conversation
		one  domain.Member
		two  domain.Member
	)
	err := row.Scan(
		&conv.ID, &conv.MemberOneID, &conv.MemberTwoID, &conv.CreatedAt,
		&one.ID, &one.ServerID, &one.ProfileID, &one.Role, &one.CreatedAt,
		&one.Username, &one.DisplayName, &one.AvatarURL,
		&two.ID, &two.ServerID, &two.ProfileID, &two.Role, &two.CreatedAt,
		&two.Username, &two.DisplayName, &two.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	conv.MemberOne = &one
	conv.MemberTwo = &two
	return &conv, nil
}
