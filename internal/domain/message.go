package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeletedMessageContent replaces the body of a soft-deleted message.
// The row itself stays, so pagination cursors pointing at it remain
// valid.
const DeletedMessageContent = "This message has been deleted"

// Message belongs to exactly one channel. IDs are UUIDv7 so the id
// alone is time-sortable, which keeps (created_at DESC, id DESC)
// pagination stable under timestamp collisions.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChannelID uuid.UUID `json:"channel_id"`
	MemberID  uuid.UUID `json:"member_id"`
	Content   *string   `json:"content,omitempty"`
	FileURL   *string   `json:"file_url,omitempty"`
	Deleted   bool      `json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Joined sender fields
	SenderUsername    string  `json:"sender_username,omitempty"`
	SenderDisplayName string  `json:"sender_display_name,omitempty"`
	SenderAvatarURL   *string `json:"sender_avatar_url,omitempty"`
	SenderRole        Role    `json:"sender_role,omitempty"`
}

// DirectMessage mirrors Message for conversations.
type DirectMessage struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	MemberID       uuid.UUID `json:"member_id"`
	Content        *string   `json:"content,omitempty"`
	FileURL        *string   `json:"file_url,omitempty"`
	Deleted        bool      `json:"deleted"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	// Joined sender fields
	SenderUsername    string  `json:"sender_username,omitempty"`
	SenderDisplayName string  `json:"sender_display_name,omitempty"`
	SenderAvatarURL   *string `json:"sender_avatar_url,omitempty"`
	SenderRole        Role    `json:"sender_role,omitempty"`
}
