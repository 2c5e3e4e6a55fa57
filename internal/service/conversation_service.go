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
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrNotParticipant        = errors.New("caller is not a participant of this conversation")
	ErrSameMember            = errors.New("cannot start a conversation with yourself")
	ErrCrossServerPair       = errors.New("both members must belong to the same server")
	ErrDirectMessageNotFound = errors.New("direct message not found")
)

type ConversationService struct {
	conversationRepo repository.ConversationRepository
	directRepo       repository.DirectMessageRepository
	memberRepo       repository.MemberRepository
	notifier         Notifier
}

func NewConversationService(
	conversationRepo repository.ConversationRepository,
	directRepo repository.DirectMessageRepository,
	memberRepo repository.MemberRepository,
) *ConversationService {
	return &ConversationService{
		conversationRepo: conversationRepo,
		directRepo:       directRepo,
		memberRepo:       memberRepo,
	}
}

func (s *ConversationService) SetNotifier(n Notifier) {
	s.notifier = n
}

type DirectMessagePage struct {
	Items []domain.DirectMessage `json:"items"`
	// Same heuristic as MessagePage.NextCursor.
	NextCursor *string `json:"next_cursor"`
}

// GetOrCreate resolves the single conversation between the caller and
// another member of the same server, creating it on first contact. The
// pair is canonicalized to (min, max) before lookup and insert, so
// (A,B) and (B,A) hit the same row; a concurrent first-contact race is
// absorbed by the unique constraint plus one re-fetch.
func (s *ConversationService) GetOrCreate(ctx context.Context, profileID, serverID, otherMemberID uuid.UUID) (*domain.Conversation, error) {
	caller, err := s.memberRepo.GetByServerAndProfile(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, ErrNotMember
	}

	if caller.ID == otherMemberID {
		return nil, ErrSameMember
	}

	other, err := s.memberRepo.GetByID(ctx, otherMemberID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, ErrMemberNotFound
	}
	if other.ServerID != serverID {
		return nil, ErrCrossServerPair
	}

	one, two := domain.CanonicalPair(caller.ID, other.ID)

	conv, err := s.conversationRepo.GetByMembers(ctx, one, two)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	conv = &domain.Conversation{
		ID:          uuid.New(),
		MemberOneID: one,
		MemberTwoID: two,
		CreatedAt:   time.Now(),
	}

	if err := s.conversationRepo.Create(ctx, conv); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// The other participant won the race; their row is ours.
			return s.conversationRepo.GetByMembers(ctx, one, two)
		}
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	return s.conversationRepo.GetByID(ctx, conv.ID)
}

// List returns the caller's conversations within a server.
func (s *ConversationService) List(ctx context.Context, profileID, serverID uuid.UUID) ([]domain.Conversation, error) {
	caller, err := s.memberRepo.GetByServerAndProfile(ctx, serverID, profileID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, ErrNotMember
	}

	convs, err := s.conversationRepo.ListByMember(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// SendMessage is the ingestion pipeline for direct messages.
func (s *ConversationService) SendMessage(ctx context.Context, profileID, conversationID uuid.UUID, input SendMessageInput) (*domain.DirectMessage, error) {
	member, err := s.requireParticipant(ctx, profileID, conversationID)
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
	msg := &domain.DirectMessage{
		ID:             id,
		ConversationID: conversationID,
		MemberID:       member.ID,
		Content:        content,
		FileURL:        fileURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.directRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating direct message: %w", err)
	}

	full, err := s.directRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.DirectMessageCreated(full)
	}

	return full, nil
}

// ListMessages returns one page of conversation history, newest first.
func (s *ConversationService) ListMessages(ctx context.Context, profileID, conversationID uuid.UUID, cursor *uuid.UUID) (*DirectMessagePage, error) {
	if _, err := s.requireParticipant(ctx, profileID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.directRepo.ListByConversation(ctx, conversationID, cursor, MessagesBatch)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.DirectMessage{}
	}

	var next *string
	if len(messages) == MessagesBatch {
		last := messages[len(messages)-1].ID.String()
		next = &last
	}

	return &DirectMessagePage{Items: messages, NextCursor: next}, nil
}

// DeleteMessage soft-deletes a direct message; only the author may.
func (s *ConversationService) DeleteMessage(ctx context.Context, profileID, messageID uuid.UUID) error {
	msg, err := s.directRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrDirectMessageNotFound
	}

	member, err := s.requireParticipant(ctx, profileID, msg.ConversationID)
	if err != nil {
		return err
	}
	if msg.MemberID != member.ID {
		return ErrNotMessageOwner
	}

	if err := s.directRepo.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	deleted, err := s.directRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if s.notifier != nil && deleted != nil {
		s.notifier.DirectMessageDeleted(deleted)
	}

	return nil
}

func (s *ConversationService) requireParticipant(ctx context.Context, profileID, conversationID uuid.UUID) (*domain.Member, error) {
	conv, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	switch {
	case conv.MemberOne != nil && conv.MemberOne.ProfileID == profileID:
		return conv.MemberOne, nil
	case conv.MemberTwo != nil && conv.MemberTwo.ProfileID == profileID:
		return conv.MemberTwo, nil
	}
	return nil, ErrNotParticipant
}
