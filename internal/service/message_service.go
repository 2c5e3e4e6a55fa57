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
	ErrMessageNotFound = errors.New("message not found")
	ErrNotMessageOwner = errors.New("only the author or a moderator can delete a message")
	ErrEmptyMessage    = errors.New("message needs content or a file attachment")
)

// MessagesBatch is the fixed page size for message history.
const MessagesBatch = 10

// Notifier broadcasts real-time events to connected clients. Delivery
// is best-effort; the write path never depends on it.
type Notifier interface {
	MessageCreated(msg *domain.Message)
	MessageDeleted(msg *domain.Message)
	DirectMessageCreated(msg *domain.DirectMessage)
	DirectMessageDeleted(msg *domain.DirectMessage)
}

type MessageService struct {
	messageRepo repository.MessageRepository
	channelRepo repository.ChannelRepository
	memberRepo  repository.MemberRepository
	notifier    Notifier
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	channelRepo repository.ChannelRepository,
	memberRepo repository.MemberRepository,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		channelRepo: channelRepo,
		memberRepo:  memberRepo,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendMessageInput struct {
	Content string  `json:"content"`
	FileURL *string `json:"file_url,omitempty"`
}

type MessagePage struct {
	Items []domain.Message `json:"items"`
	// NextCursor is set only when the page came back full. That is a
	// heuristic: when the total is an exact multiple of the batch size
	// the final page still advertises a cursor, and the follow-up
	// request returns an empty page.
	NextCursor *string `json:"next_cursor"`
}

// Send is the ingestion pipeline for channel messages: membership
// check, durable insert, joined re-fetch, then best-effort broadcast.
func (s *MessageService) Send(ctx context.Context, profileID, channelID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	_, member, err := s.resolveChannelMember(ctx, profileID, channelID)
	if err != nil {
		return nil, err
	}

	content, fileURL, err := normalizeBody(input.Content, input.FileURL)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	now := time.Now()
	msg := &domain.Message{
		ID:        id,
		ChannelID: channelID,
		MemberID:  member.ID,
		Content:   content,
		FileURL:   fileURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.MessageCreated(full)
	}

	return full, nil
}

// List returns one page of channel history, newest first. The page size
// is fixed at MessagesBatch; see MessagePage.NextCursor for the
// continuation semantics.
func (s *MessageService) List(ctx context.Context, profileID, channelID uuid.UUID, cursor *uuid.UUID) (*MessagePage, error) {
	if _, _, err := s.resolveChannelMember(ctx, profileID, channelID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByChannel(ctx, channelID, cursor, MessagesBatch)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	var next *string
	if len(messages) == MessagesBatch {
		last := messages[len(messages)-1].ID.String()
		next = &last
	}

	return &MessagePage{Items: messages, NextCursor: next}, nil
}

// Delete soft-deletes a message. Allowed for the author and for
// moderators of the channel's server.
func (s *MessageService) Delete(ctx context.Context, profileID, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	_, member, err := s.resolveChannelMember(ctx, profileID, msg.ChannelID)
	if err != nil {
		return err
	}
	if msg.MemberID != member.ID && !member.Role.CanManageChannels() {
		return ErrNotMessageOwner
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	deleted, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if s.notifier != nil && deleted != nil {
		s.notifier.MessageDeleted(deleted)
	}

	return nil
}

func (s *MessageService) resolveChannelMember(ctx context.Context, profileID, channelID uuid.UUID) (*domain.Channel, *domain.Member, error) {
	ch, err := s.channelRepo.GetByID(ctx, channelID)
	if err != nil {
		return nil, nil, err
	}
	if ch == nil {
		return nil, nil, ErrChannelNotFound
	}

	member, err := s.memberRepo.GetByServerAndProfile(ctx, ch.ServerID, profileID)
	if err != nil {
		return nil, nil, err
	}
	if member == nil {
		return nil, nil, ErrNotMember
	}

	return ch, member, nil
}

// normalizeBody rejects a message that carries neither text nor a file.
func normalizeBody(content string, fileURL *string) (*string, *string, error) {
	content = strings.TrimSpace(content)
	if fileURL != nil && strings.TrimSpace(*fileURL) == "" {
		fileURL = nil
	}
	if content == "" && fileURL == nil {
		return nil, nil, ErrEmptyMessage
	}

	var body *string
	if content != "" {
		body = &content
	}
	return body, fileURL, nil
}
