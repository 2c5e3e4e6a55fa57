package domain

import (
	"time"

	"github.com/google/uuid"
)

type Server struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	ImageURL   *string   `json:"image_url,omitempty"`
	InviteCode string    `json:"invite_code,omitempty"`
	OwnerID    uuid.UUID `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Role is the closed set of member roles within a server.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleGuest     Role = "guest"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleModerator, RoleGuest:
		return true
	}
	return false
}

// CanManageChannels reports whether the role may create, rename or
// delete channels and moderate other members' messages.
func (r Role) CanManageChannels() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleModerator
}

type Member struct {
	ID        uuid.UUID `json:"id"`
	ServerID  uuid.UUID `json:"server_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	// Joined fields
	Username    string  `json:"username,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}
