package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/domain"
)

// ErrConflict marks a uniqueness violation (e.g. two concurrent
// conversation creates for the same pair). Implementations translate
// their driver-specific error into it so services can retry.
var ErrConflict = errors.New("uniqueness conflict")

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByUsername(ctx context.Context, username string) (*domain.Profile, error)
}

type ServerRepository interface {
	// Create inserts the server, its owner member and the default
	// channel in one transaction.
	Create(ctx context.Context, server *domain.Server, owner *domain.Member, defaultChannel *domain.Channel) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Server, error)
	GetByInviteCode(ctx context.Context, code string) (*domain.Server, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Server, error)
	UpdateInviteCode(ctx context.Context, id uuid.UUID, code string) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)
	GetByServerAndProfile(ctx context.Context, serverID, profileID uuid.UUID) (*domain.Member, error)
	ListByServer(ctx context.Context, serverID uuid.UUID) ([]domain.Member, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *domain.Channel) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Channel, error)
	ListByServer(ctx context.Context, serverID uuid.UUID) ([]domain.Channel, error)
	Rename(ctx context.Context, id uuid.UUID, name string, chType domain.ChannelType) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	// GetByMembers expects the canonical (memberOne, memberTwo) order.
	GetByMembers(ctx context.Context, memberOneID, memberTwoID uuid.UUID) (*domain.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	ListByMember(ctx context.Context, memberID uuid.UUID) ([]domain.Conversation, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListByChannel returns up to limit messages ordered by
	// (created_at DESC, id DESC), strictly after the cursor row when a
	// cursor is given. A cursor pointing at a missing row yields an
	// empty slice.
	ListByChannel(ctx context.Context, channelID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Message, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type DirectMessageRepository interface {
	Create(ctx context.Context, msg *domain.DirectMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DirectMessage, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.DirectMessage, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
