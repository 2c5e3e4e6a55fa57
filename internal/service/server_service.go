package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/domain"
	"github.com/vvasilje/murmur/internal/repository"
)

var (
	ErrServerNotFound = errors.New("server not found")
	ErrNotMember      = errors.New("caller is not a member of this server")
	ErrNotServerAdmin = errors.New("only a server admin can perform this action")
	ErrInviteInvalid  = errors.New("invite code does not match any server")
	ErrOwnerImmutable = errors.New("the server owner cannot be changed, kicked or removed")
	ErrMemberNotFound = errors.New("member not found")
)

type ServerService struct {
	serverRepo repository.ServerRepository
	memberRepo repository.MemberRepository
}

func NewServerService(serverRepo repository.ServerRepository, memberRepo repository.MemberRepository) *ServerService {
	return &ServerService{serverRepo: serverRepo, memberRepo: memberRepo}
}

type CreateServerInput struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url,omitempty"`
}

// Create sets up a server with its owner member and the "general"
// landing channel in a single transaction.
func (s *ServerService) Create(ctx context.Context, profileID uuid.UUID, input CreateServerInput) (*domain.Server, error) {
	now := time.Now()

	server := &domain.Server{
		ID:         uuid.New(),
		Name:       input.Name,
		ImageURL:   input.ImageURL,
		InviteCode: uuid.NewString(),
		OwnerID:    profileID,
		CreatedAt:  now,
	}

	owner := &domain.Member{
		ID:        uuid.New(),
		ServerID:  server.ID,
		ProfileID: profileID,
		Role:      domain.RoleOwner,
		CreatedAt: now,
	}

	general := &domain.Channel{
		ID:        uuid.New(),
		ServerID:  server.ID,
		Name:      domain.DefaultChannelName,
		Type:      domain.ChannelText,
		CreatedBy: owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.serverRepo.Create(ctx, server, owner, general); err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}

	return server, nil
}

func (s *ServerService) Get(ctx context.Context, profileID, serverID uuid.UUID) (*domain.Server, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, ErrServerNotFound
	}

	if _, err := s.requireMember(ctx, serverID, profileID); err != nil {
		return nil, err
	}

	return server, nil
}

func (s *ServerService) List(ctx context.Context, profileID uuid.UUID) ([]domain.Server, error) {
	servers, err := s.serverRepo.ListByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if servers == nil {
		servers = []domain.Server{}
	}
	return servers, nil
}

// Join adds the caller as a guest via invite code. Joining a server the
// caller already belongs to is a no-op that returns the server.
func (s *ServerService) Join(ctx context.Context, profileID uuid.UUID, inviteCode string) (*domain.Server, error) {
	server, err := s.serverRepo.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, ErrInviteInvalid
	}

	existing, err := s.memberRepo.GetByServerAndProfile(ctx, server.ID, profileID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return server, nil
	}

	member := &domain.Member{
		ID:        uuid.New(),
		ServerID:  server.ID,
		ProfileID: profileID,
		Role:      domain.RoleGuest,
		CreatedAt: time.Now(),
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		// Lost a race against the same profile joining twice.
		if errors.Is(err, repository.ErrConflict) {
			return server, nil
		}
		return nil, fmt.Errorf("creating member: %w", err)
	}

	return server, nil
}

func (s *ServerService) Leave(ctx context.Context, profileID, serverID uuid.UUID) error {
	member, err := s.requireMember(ctx, serverID, profileID)
	if err != nil {
		return err
	}
	if member.Role == domain.RoleOwner {
		return ErrOwnerImmutable
	}
	return s.memberRepo.Delete(ctx, member.ID)
}

func (s *ServerService) ListMembers(ctx context.Context, profileID, serverID uuid.UUID) ([]domain.Member, error) {
	if _, err := s.requireMember(ctx, serverID, profileID); err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []domain.Member{}
	}
	return members, nil
}

func (s *ServerService) UpdateMemberRole(ctx context.Context, profileID, serverID, memberID uuid.UUID, role domain.Role) (*domain.Member, error) {
	requester, err := s.requireMember(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}
	if requester.Role != domain.RoleOwner && requester.Role != domain.RoleAdmin {
		return nil, ErrNotServerAdmin
	}

	target, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.ServerID != serverID {
		return nil, ErrMemberNotFound
	}
	if target.Role == domain.RoleOwner || role == domain.RoleOwner {
		return nil, ErrOwnerImmutable
	}

	if err := s.memberRepo.UpdateRole(ctx, memberID, role); err != nil {
		return nil, fmt.Errorf("updating role: %w", err)
	}

	return s.memberRepo.GetByID(ctx, memberID)
}

func (s *ServerService) KickMember(ctx context.Context, profileID, serverID, memberID uuid.UUID) error {
	requester, err := s.requireMember(ctx, serverID, profileID)
	if err != nil {
		return err
	}
	if !requester.Role.CanManageChannels() {
		return ErrNotServerAdmin
	}

	target, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if target == nil || target.ServerID != serverID {
		return ErrMemberNotFound
	}
	if target.Role == domain.RoleOwner {
		return ErrOwnerImmutable
	}

	return s.memberRepo.Delete(ctx, memberID)
}

// RegenerateInvite invalidates the current invite code (owner only).
func (s *ServerService) RegenerateInvite(ctx context.Context, profileID, serverID uuid.UUID) (*domain.Server, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, ErrServerNotFound
	}
	if server.OwnerID != profileID {
		return nil, ErrNotServerAdmin
	}

	code := uuid.NewString()
	if err := s.serverRepo.UpdateInviteCode(ctx, serverID, code); err != nil {
		return nil, fmt.Errorf("updating invite code: %w", err)
	}
	server.InviteCode = code
	return server, nil
}

func (s *ServerService) requireMember(ctx context.Context, serverID, profileID uuid.UUID) (*domain.Member, error) {
	member, err := s.memberRepo.GetByServerAndProfile(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}
	return member, nil
}
