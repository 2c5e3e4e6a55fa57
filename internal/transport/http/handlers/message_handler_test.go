package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/domain"
	"github.com/vvasilje/murmur/internal/service"
	"github.com/vvasilje/murmur/internal/transport/http/middleware"
)

const testSecret = "handler-test-secret"

// Minimal in-memory repos, just enough to drive the message endpoints.

type memChannelRepo struct {
	channels map[uuid.UUID]*domain.Channel
}

func (r *memChannelRepo) Create(_ context.Context, ch *domain.Channel) error {
	r.channels[ch.ID] = ch
	return nil
}

func (r *memChannelRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Channel, error) {
	if ch, ok := r.channels[id]; ok {
		cp := *ch
		return &cp, nil
	}
	return nil, nil
}

func (r *memChannelRepo) ListByServer(context.Context, uuid.UUID) ([]domain.Channel, error) {
	return nil, nil
}

func (r *memChannelRepo) Rename(context.Context, uuid.UUID, string, domain.ChannelType) error {
	return nil
}

func (r *memChannelRepo) Delete(context.Context, uuid.UUID) error { return nil }

type memMemberRepo struct {
	members map[uuid.UUID]*domain.Member
}

func (r *memMemberRepo) Create(_ context.Context, m *domain.Member) error {
	r.members[m.ID] = m
	return nil
}

func (r *memMemberRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Member, error) {
	if m, ok := r.members[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *memMemberRepo) GetByServerAndProfile(_ context.Context, serverID, profileID uuid.UUID) (*domain.Member, error) {
	for _, m := range r.members {
		if m.ServerID == serverID && m.ProfileID == profileID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memMemberRepo) ListByServer(context.Context, uuid.UUID) ([]domain.Member, error) {
	return nil, nil
}

func (r *memMemberRepo) UpdateRole(context.Context, uuid.UUID, domain.Role) error { return nil }
func (r *memMemberRepo) Delete(context.Context, uuid.UUID) error                  { return nil }

type memMessageRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID]*domain.Message
}

func (r *memMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *memMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (r *memMessageRepo) ListByChannel(_ context.Context, channelID uuid.UUID, cursor *uuid.UUID, limit int) ([]domain.Message, error) {
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

func (r *memMessageRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		content := domain.DeletedMessageContent
		m.Deleted = true
		m.Content = &content
		m.FileURL = nil
	}
	return nil
}

type handlerFixture struct {
	server    *httptest.Server
	channelID uuid.UUID
	profileID uuid.UUID
	token     string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	channels := &memChannelRepo{channels: make(map[uuid.UUID]*domain.Channel)}
	members := &memMemberRepo{members: make(map[uuid.UUID]*domain.Member)}
	messages := &memMessageRepo{messages: make(map[uuid.UUID]*domain.Message)}

	serverID := uuid.New()
	channelID := uuid.New()
	profileID := uuid.New()
	memberID := uuid.New()

	channels.channels[channelID] = &domain.Channel{
		ID:       channelID,
		ServerID: serverID,
		Name:     domain.DefaultChannelName,
		Type:     domain.ChannelText,
	}
	members.members[memberID] = &domain.Member{
		ID:        memberID,
		ServerID:  serverID,
		ProfileID: profileID,
		Role:      domain.RoleGuest,
	}

	svc := service.NewMessageService(messages, channels, members)
	h := NewMessageHandler(svc)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/channels/{id}/messages", http.HandlerFunc(h.Send))
	mux.Handle("GET /api/v1/channels/{id}/messages", http.HandlerFunc(h.List))
	mux.Handle("DELETE /api/v1/messages/{id}", http.HandlerFunc(h.Delete))

	ts := httptest.NewServer(middleware.Auth(testSecret)(mux))
	t.Cleanup(ts.Close)

	return &handlerFixture{
		server:    ts,
		channelID: channelID,
		profileID: profileID,
		token:     signToken(t, profileID),
	}
}

func signToken(t *testing.T, profileID uuid.UUID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": profileID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func (f *handlerFixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestMessageEndpoints(t *testing.T) {
	f := newHandlerFixture(t)
	base := "/api/v1/channels/" + f.channelID.String() + "/messages"

	// No token.
	resp := f.do(t, http.MethodGet, base, "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	// Send a message.
	resp = f.do(t, http.MethodPost, base, f.token, map[string]string{"content": "hello"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send status = %d, want 200", resp.StatusCode)
	}
	var sent domain.Message
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil {
		t.Fatalf("decoding sent message: %v", err)
	}
	if sent.Content == nil || *sent.Content != "hello" {
		t.Fatalf("sent content = %v, want hello", sent.Content)
	}

	// Empty body is rejected.
	resp = f.do(t, http.MethodPost, base, f.token, map[string]string{"content": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty message status = %d, want 400", resp.StatusCode)
	}

	// List the page back.
	resp = f.do(t, http.MethodGet, base, f.token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var page struct {
		Items      []domain.Message `json:"items"`
		NextCursor *string          `json:"next_cursor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decoding page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != sent.ID {
		t.Fatalf("page = %+v, want the one sent message", page.Items)
	}
	if page.NextCursor != nil {
		t.Fatalf("next_cursor = %v on a short page, want null", *page.NextCursor)
	}

	// Malformed cursor.
	resp = f.do(t, http.MethodGet, base+"?cursor=not-a-uuid", f.token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad cursor status = %d, want 400", resp.StatusCode)
	}

	// Delete it.
	resp = f.do(t, http.MethodDelete, "/api/v1/messages/"+sent.ID.String(), f.token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	// The row survives as a tombstone.
	resp = f.do(t, http.MethodGet, base, f.token, nil)
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decoding page: %v", err)
	}
	if len(page.Items) != 1 || !page.Items[0].Deleted {
		t.Fatalf("page after delete = %+v, want one deleted row", page.Items)
	}
	if page.Items[0].Content == nil || *page.Items[0].Content != domain.DeletedMessageContent {
		t.Fatalf("tombstone content = %v", page.Items[0].Content)
	}
}

func TestMessageEndpointsForbidden(t *testing.T) {
	f := newHandlerFixture(t)
	base := "/api/v1/channels/" + f.channelID.String() + "/messages"

	// A valid token for a profile with no membership.
	stranger := signToken(t, uuid.New())
	resp := f.do(t, http.MethodPost, base, stranger, map[string]string{"content": "let me in"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger send status = %d, want 403", resp.StatusCode)
	}
	resp = f.do(t, http.MethodGet, base, stranger, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stranger list status = %d, want 403", resp.StatusCode)
	}

	// Unknown channel.
	resp = f.do(t, http.MethodGet, "/api/v1/channels/"+uuid.NewString()+"/messages", f.token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown channel status = %d, want 404", resp.StatusCode)
	}
}

func TestMessagePaginationOverHTTP(t *testing.T) {
	f := newHandlerFixture(t)
	base := "/api/v1/channels/" + f.channelID.String() + "/messages"

	for i := 0; i < service.MessagesBatch+2; i++ {
		resp := f.do(t, http.MethodPost, base, f.token, map[string]string{"content": fmt.Sprintf("m%d", i)})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("send %d status = %d", i, resp.StatusCode)
		}
	}

	var page struct {
		Items      []domain.Message `json:"items"`
		NextCursor *string          `json:"next_cursor"`
	}

	resp := f.do(t, http.MethodGet, base, f.token, nil)
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decoding first page: %v", err)
	}
	if len(page.Items) != service.MessagesBatch || page.NextCursor == nil {
		t.Fatalf("first page: %d items, cursor %v", len(page.Items), page.NextCursor)
	}

	resp = f.do(t, http.MethodGet, base+"?cursor="+*page.NextCursor, f.token, nil)
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decoding second page: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor != nil {
		t.Fatalf("second page: %d items, cursor %v", len(page.Items), page.NextCursor)
	}
}
