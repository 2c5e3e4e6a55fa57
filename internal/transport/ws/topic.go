package ws

import (
	"fmt"

	"github.com/google/uuid"
)

// Scope types for topic keys.
const (
	ScopeChannel      = "channel"
	ScopeConversation = "conversation"
)

// MessagesTopic is the routing key for new messages in a scope, e.g.
// "channel:<id>:messages".
func MessagesTopic(scope string, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:messages", scope, id)
}

// DeletesTopic carries soft-delete events for a scope.
func DeletesTopic(scope string, id uuid.UUID) string {
	return fmt.Sprintf("%s:%s:delete", scope, id)
}
