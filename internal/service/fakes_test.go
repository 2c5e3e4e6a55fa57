package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/domain"
	"github.com/vvasilje/murmur/internal/repository"
	"github.com/vvasilje/murmur/internal/session"
)

// In-memory repository fakes. They enforce the same uniqueness rules as
// the postgres implementations (via repository.ErrConflict) so the
// services can be exercised without a database.

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*domain.Profile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.Email == p.Email || existing.Username == p.Username {
			return repository.ErrConflict
		}
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProfileRepo) GetByUsername(_ context.Context, username string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[uuid.UUID]*domain.Member
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[uuid.UUID]*domain.Member)}
}

func (r *fakeMemberRepo) add(m domain.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.ID] = &m
}

func (r *fakeMemberRepo) Create(_ context.Context, m *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.members {
		if existing.ServerID == m.ServerID && existing.ProfileID == m.ProfileID {
			return repository.ErrConflict
		}
	}
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

func (r *fakeMemberRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeMemberRepo) GetByServerAndProfile(_ context.Context, serverID, profileID uuid.UUID) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.ServerID == serverID && m.ProfileID == profileID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeMemberRepo) ListByServer(_ context.Context, serverID uuid.UUID) ([]domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Member
	for _, m := range r.members {
		if m.ServerID == serverID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[id]; ok {
		m.Role = role
	}
	return nil
}

func (r *fakeMemberRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, id)
	return nil
}

type fakeServerRepo struct {
	mu      sync.Mutex
	servers map[uuid.UUID]*domain.Server
}

func newFakeServerRepo() *fakeServerRepo {
	return &fakeServerRepo{servers: make(map[uuid.UUID]*domain.Server)}
}

func (r *fakeServerRepo) add(s domain.Server) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[s.ID] = &s
}

func (r *fakeServerRepo) Create(_ context.Context, s *domain.Server, owner *domain.Member, defaultChannel *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.servers[s.ID] = &cp
	return nil
}

func (r *fakeServerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.servers[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeServerRepo) GetByInviteCode(_ context.Context, code string) (*domain.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.servers {
		if s.InviteCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeServerRepo) ListByProfile(_ context.Context, profileID uuid.UUID) ([]domain.Server, error) {
	return nil, nil
}

func (r *fakeServerRepo) UpdateInviteCode(_ context.Context, id uuid.UUID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.servers[id]; ok {
		s.InviteCode = code
	}
	return nil
}

type fakeChannelRepo struct {
	mu       sync.Mutex
	channels map[uuid.UUID]*domain.Channel
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[uuid.UUID]*domain.Channel)}
}

func (r *fakeChannelRepo) add(ch domain.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.ID] = &ch
}

func (r *fakeChannelRepo) Create(_ context.Context, ch *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.channels {
		if existing.ServerID == ch.ServerID && existing.Name == ch.Name {
			return repository.ErrConflict
		}
	}
	cp := *ch
	r.channels[ch.ID] = &cp
	return nil
}

func (r *fakeChannelRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[id]; ok {
		cp := *ch
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeChannelRepo) ListByServer(_ context.Context, serverID uuid.UUID) ([]domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Channel
	for _, ch := range r.channels {
		if ch.ServerID == serverID {
			out = append(out, *ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeChannelRepo) Rename(_ context.Context, id uuid.UUID, name string, chType domain.ChannelType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok {
		return nil
	}
	for _, existing := range r.channels {
		if existing.ID != id && existing.ServerID == ch.ServerID && existing.Name == name {
			return repository.ErrConflict
		}
	}
	ch.Name = name
	ch.Type = chType
	ch.UpdatedAt = time.Now()
	return nil
}

func (r *fakeChannelRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, id)
	return nil
}

type fakeConversationRepo struct {
	mu      sync.Mutex
	convs   map[uuid.UUID]*domain.Conversation
	members *fakeMemberRepo
}

func newFakeConversationRepo(members *fakeMemberRepo) *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:   make(map[uuid.UUID]*domain.Conversation),
		members: members,
	}
}

func (r *fakeConversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.convs {
		if existing.MemberOneID == conv.MemberOneID && existing.MemberTwoID == conv.MemberTwoID {
			return repository.ErrConflict
		}
	}
	cp := *conv
	r.convs[conv.ID] = &cp
	return nil
}

func (r *fakeConversationRepo) GetByMembers(ctx context.Context, memberOneID, memberTwoID uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	var found *domain.Conversation
	for _, c := range r.convs {
		if c.MemberOneID == memberOneID && c.MemberTwoID == memberTwoID {
			cp := *c
			found = &cp
			break
		}
	}
	r.mu.Unlock()
	if found == nil {
		return nil, nil
	}
	return r.populate(ctx, found)
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	c, ok := r.convs[id]
	var cp domain.Conversation
	if ok {
		cp = *c
	}
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.populate(ctx, &cp)
}

func (r *fakeConversationRepo) ListByMember(ctx context.Context, memberID uuid.UUID) ([]domain.Conversation, error) {
	r.mu.Lock()
	var out []domain.Conversation
	for _, c := range r.convs {
		if c.Involves(memberID) {
			out = append(out, *c)
		}
	}
	r.mu.Unlock()
	for i := range out {
		if _, err := r.populate(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) populate(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	one, err := r.members.GetByID(ctx, conv.MemberOneID)
	if err != nil {
		return nil, err
	}
	two, err := r.members.GetByID(ctx, conv.MemberTwoID)
	if err != nil {
		return nil, err
	}
	conv.MemberOne = one
	conv.MemberTwo = two
	return conv, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*domain.Message)}
}

func (r *fakeMessageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeMessageRepo) ListByChannel(_ context.Context, channelID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []domain.Message
	for _, m := range r.messages {
		if m.ChannelID == channelID {
			all = append(all, *m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() > all[j].ID.String()
	})

	if cursor != nil {
		idx := -1
		for i, m := range all {
			if m.ID == *cursor {
				idx = i
				break
			}
		}
		// Dangling cursor yields an empty page, like the tuple subquery.
		if idx < 0 {
			return nil, nil
		}
		all = all[idx+1:]
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeMessageRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		content := domain.DeletedMessageContent
		m.Deleted = true
		m.Content = &content
		m.FileURL = nil
		m.UpdatedAt = time.Now()
	}
	return nil
}

type fakeDirectMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*domain.DirectMessage
}

func newFakeDirectMessageRepo() *fakeDirectMessageRepo {
	return &fakeDirectMessageRepo{messages: make(map[uuid.UUID]*domain.DirectMessage)}
}

func (r *fakeDirectMessageRepo) Create(_ context.Context, msg *domain.DirectMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *fakeDirectMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeDirectMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.DirectMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []domain.DirectMessage
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			all = append(all, *m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() > all[j].ID.String()
	})

	if cursor != nil {
		idx := -1
		for i, m := range all {
			if m.ID == *cursor {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil
		}
		all = all[idx+1:]
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeDirectMessageRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		content := domain.DeletedMessageContent
		m.Deleted = true
		m.Content = &content
		m.FileURL = nil
		m.UpdatedAt = time.Now()
	}
	return nil
}

// fakeNotifier records broadcasts in order.
type fakeNotifier struct {
	mu      sync.Mutex
	created []domain.Message
	deleted []domain.Message
	dms     []domain.DirectMessage
	dmDel   []domain.DirectMessage
}

func (n *fakeNotifier) MessageCreated(msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, *msg)
}

func (n *fakeNotifier) MessageDeleted(msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, *msg)
}

func (n *fakeNotifier) DirectMessageCreated(msg *domain.DirectMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dms = append(n.dms, *msg)
}

func (n *fakeNotifier) DirectMessageDeleted(msg *domain.DirectMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dmDel = append(n.dmDel, *msg)
}

// fakeSessionStore is an in-memory SessionStore for auth tests.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]session.Data
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]session.Data)}
}

func (s *fakeSessionStore) Save(_ context.Context, token string, data session.Data, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = data
	return nil
}

func (s *fakeSessionStore) Lookup(_ context.Context, token string) (*session.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.sessions[token]; ok {
		return &data, nil
	}
	return nil, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
