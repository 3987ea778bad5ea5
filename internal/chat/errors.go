package chat

import "errors"

// Sentinel errors for conversation handling.
var (
	// ErrConversationTooLong indicates the combined message content
	// exceeds MaxConversationChars.
	ErrConversationTooLong = errors.New("conversation too long")

	// ErrNoUserMessage indicates normalization left no usable user message.
	ErrNoUserMessage = errors.New("no user message in conversation")

	// ErrExecutionFailed indicates model generation failed after retries.
	ErrExecutionFailed = errors.New("execution failed")
)
