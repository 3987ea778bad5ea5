package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
)

// MaxConversationChars caps the combined content length of a normalized
// conversation. The ceiling protects the model's context window and the
// server's memory; requests over it are rejected before any model call.
const MaxConversationChars = 20000

// IncomingMessage is one message as sent by the client. ID is optional:
// clients that track message IDs send them, others get synthetic ones.
type IncomingMessage struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizedMessage is a cleaned message ready for the model.
type NormalizedMessage struct {
	ID      string  `json:"id"`
	Role    ai.Role `json:"role"`
	Content string  `json:"content"`
}

// Normalize cleans a client conversation for model consumption:
//
//   - roles map to user/model; messages with unknown roles are dropped
//   - messages with empty content are dropped
//   - missing IDs get synthetic ones derived from position and wall
//     clock, so IDs stay unique within the request without server state
//
// Returns ErrConversationTooLong when the surviving content exceeds
// MaxConversationChars, and ErrNoUserMessage when nothing usable from
// the user remains.
func Normalize(messages []IncomingMessage) ([]NormalizedMessage, error) {
	now := time.Now().UnixMilli()

	normalized := make([]NormalizedMessage, 0, len(messages))
	total := 0
	hasUser := false

	for i, msg := range messages {
		role, ok := normalizeRole(msg.Role)
		if !ok {
			continue
		}
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}

		total += len(content)
		if total > MaxConversationChars {
			return nil, fmt.Errorf("%w: content exceeds %d characters", ErrConversationTooLong, MaxConversationChars)
		}

		id := msg.ID
		if id == "" {
			id = fmt.Sprintf("msg-%d-%d", now, i)
		}
		if role == ai.RoleUser {
			hasUser = true
		}
		normalized = append(normalized, NormalizedMessage{ID: id, Role: role, Content: content})
	}

	if !hasUser {
		return nil, ErrNoUserMessage
	}
	return normalized, nil
}

// normalizeRole maps client role strings onto model roles.
func normalizeRole(role string) (ai.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user":
		return ai.RoleUser, true
	case "assistant", "model":
		return ai.RoleModel, true
	default:
		return "", false
	}
}

// ToModelMessages converts normalized messages into Genkit messages.
func ToModelMessages(messages []NormalizedMessage) []*ai.Message {
	out := make([]*ai.Message, len(messages))
	for i, msg := range messages {
		part := ai.NewTextPart(msg.Content)
		if msg.Role == ai.RoleUser {
			out[i] = ai.NewUserMessage(part)
		} else {
			out[i] = ai.NewModelMessage(part)
		}
	}
	return out
}
