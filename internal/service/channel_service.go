package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/domain"
	"github.com/vvasilje/murmur/internal/repository"
)

var (
	ErrChannelNotFound     = errors.New("channel not found")
	ErrChannelNameTaken    = errors.New("channel name already exists in this server")
	ErrReservedChannelName = errors.New(`channel name "general" is reserved`)
)

type ChannelService struct {
	channelRepo repository.ChannelRepository
	memberRepo  repository.MemberRepository
	serverRepo  repository.ServerRepository
}

func NewChannelService(channelRepo repository.ChannelRepository, memberRepo repository.MemberRepository, serverRepo repository.ServerRepository) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
		serverRepo:  serverRepo,
	}
}

type CreateChannelInput struct {
	Name string             `json:"name"`
	Type domain.ChannelType `json:"type"`
}

type UpdateChannelInput struct {
	Name string             `json:"name"`
	Type domain.ChannelType `json:"type"`
}

func (s *ChannelService) Create(ctx context.Context, profileID, serverID uuid.UUID, input CreateChannelInput) (*domain.Channel, error) {
	server, err := s.serverRepo.GetByID(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, ErrServerNotFound
	}

	member, err := s.requireModerator(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}

	if isReservedName(input.Name) {
		return nil, ErrReservedChannelName
	}

	now := time.Now()
	ch := &domain.Channel{
		ID:        uuid.New(),
		ServerID:  serverID,
		Name:      input.Name,
		Type:      input.Type,
		CreatedBy: member.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.channelRepo.Create(ctx, ch); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrChannelNameTaken
		}
		return nil, fmt.Errorf("creating channel: %w", err)
	}

	return ch, nil
}

func (s *ChannelService) ListByServer(ctx context.Context, profileID, serverID uuid.UUID) ([]domain.Channel, error) {
	if _, err := s.requireMember(ctx, serverID, profileID); err != nil {
		return nil, err
	}

	channels, err := s.channelRepo.ListByServer(ctx, serverID)
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []domain.Channel{}
	}
	return channels, nil
}

// Update renames a channel. The "general" channel can never be renamed,
// and no channel may be renamed to "general".
func (s *ChannelService) Update(ctx context.Context, profileID, channelID uuid.UUID, input UpdateChannelInput) (*domain.Channel, error) {
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, ErrChannelNotFound
	}

	if _, err := s.requireModerator(ctx, ch.ServerID, profileID); err != nil {
		return nil, err
	}

	if isReservedName(ch.Name) || isReservedName(input.Name) {
		return nil, ErrReservedChannelName
	}

	if err := s.channelRepo.Rename(ctx, channelID, input.Name, input.Type); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrChannelNameTaken
		}
		return nil, fmt.Errorf("renaming channel: %w", err)
	}

	return s.channelRepo.GetByID(ctx, channelID)
}

// Delete removes a channel and its messages. The "general" channel is
// protected regardless of caller role.
func (s *ChannelService) Delete(ctx context.Context, profileID, channelID uuid.UUID) error {
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return ErrChannelNotFound
	}

	if _, err := s.requireModerator(ctx, ch.ServerID, profileID); err != nil {
		return err
	}

	if isReservedName(ch.Name) {
		return ErrReservedChannelName
	}

	return s.channelRepo.Delete(ctx, channelID)
}

func (s *ChannelService) requireMember(ctx context.Context, serverID, profileID uuid.UUID) (*domain.Member, error) {
	member, err := s.memberRepo.GetByServerAndProfile(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}
	return member, nil
}

func (s *ChannelService) requireModerator(ctx context.Context, serverID, profileID uuid.UUID) (*domain.Member, error) {
	member, err := s.requireMember(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanManageChannels() {
		return nil, ErrNotServerAdmin
	}
	return member, nil
}

func isReservedName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), domain.DefaultChannelName)
}
