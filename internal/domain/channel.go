package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultChannelName is the landing channel every server is created
// with. It cannot be renamed or deleted, and no other channel may take
// the name.
const DefaultChannelName = "general"

type ChannelType string

const (
	ChannelText  ChannelType = "text"
	ChannelAudio ChannelType = "audio"
	ChannelVideo ChannelType = "video"
)

func (t ChannelType) Valid() bool {
	switch t {
	case ChannelText, ChannelAudio, ChannelVideo:
		return true
	}
	return false
}

type Channel struct {
	ID        uuid.UUID   `json:"id"`
	ServerID  uuid.UUID   `json:"server_id"`
	Name      string      `json:"name"`
	Type      ChannelType `json:"type"`
	CreatedBy uuid.UUID   `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
