package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the single direct-message thread between two members.
// MemberOneID sorts before MemberTwoID so the pair is canonical and the
// database can enforce uniqueness regardless of who initiated.
type Conversation struct {
	ID          uuid.UUID `json:"id"`
	MemberOneID uuid.UUID `json:"member_one_id"`
	MemberTwoID uuid.UUID `json:"member_two_id"`
	CreatedAt   time.Time `json:"created_at"`
	// Joined fields
	MemberOne *Member `json:"member_one,omitempty"`
	MemberTwo *Member `json:"member_two,omitempty"`
}

// Involves reports whether the given member participates in the
// conversation.
func (c *Conversation) Involves(memberID uuid.UUID) bool {
	return c.MemberOneID == memberID || c.MemberTwoID == memberID
}

// CanonicalPair orders two member ids into the (memberOne, memberTwo)
// form used for storage and lookup.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}
