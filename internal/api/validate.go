package api

import (
	"fmt"
	"strings"

	"github.com/attuneapp/attune/internal/chat"
)

// chatRequest is the POST /chat body. Unknown fields are ignored so
// clients can send transport metadata without breaking.
type chatRequest struct {
	Messages []chat.IncomingMessage `json:"messages"`
}

// validateChatRequest checks the request body shape and returns the full
// violation list, not just the first failure.
func validateChatRequest(req *chatRequest) []FieldError {
	var violations []FieldError

	if len(req.Messages) == 0 {
		violations = append(violations, FieldError{
			Field:   "messages",
			Message: "at least one message is required",
		})
		return violations
	}

	for i, msg := range req.Messages {
		switch strings.ToLower(strings.TrimSpace(msg.Role)) {
		case "user", "assistant":
		default:
			violations = append(violations, FieldError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: `role must be "user" or "assistant"`,
			})
		}
		if strings.TrimSpace(msg.Content) == "" {
			violations = append(violations, FieldError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "content must not be empty",
			})
		}
	}

	return violations
}
