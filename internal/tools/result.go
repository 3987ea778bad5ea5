package tools

import (
	"context"
	"fmt"

	"github.com/attuneapp/attune/internal/auth"
)

// Status indicates whether a tool call achieved its business goal.
type Status string

const (
	// StatusSuccess means the tool completed its operation.
	StatusSuccess Status = "success"

	// StatusError means the tool could not complete; Result.Error explains why.
	StatusError Status = "error"
)

// Error codes returned in Result.Error.Code.
const (
	// ErrCodeValidation: model-supplied arguments violated the tool's schema.
	ErrCodeValidation = "InvalidArguments"

	// ErrCodeUnauthenticated: a side-effecting tool was called without a
	// verified subject.
	ErrCodeUnauthenticated = "NotSignedIn"

	// ErrCodeNotFound: the referenced entity does not exist (or is not
	// owned by the caller).
	ErrCodeNotFound = "NotFound"

	// ErrCodeExecution: the executor failed mid-operation.
	ErrCodeExecution = "ExecutionFailed"

	// ErrCodeNetwork: an outbound call to a collaborator failed.
	ErrCodeNetwork = "NetworkError"

	// ErrCodeTimeout: the per-call time budget was exhausted.
	ErrCodeTimeout = "Timeout"
)

// Error is a structured failure description for model consumption.
// It lets the model understand what went wrong and relay it to the user
// conversationally instead of aborting the turn.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Result is the uniform payload every tool returns.
//
// NextTool is an optional hint naming the tool the model is expected to
// call next in a guided flow (the meditation wizard steps set it). It is
// a suggestion surfaced to the model, not server-enforced state.
type Result struct {
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Error    *Error         `json:"error,omitempty"`
	NextTool string         `json:"next_tool,omitempty"`
}

// OK builds a success result.
func OK(data map[string]any) Result {
	return Result{Status: StatusSuccess, Data: data}
}

// Errf builds an error result with the given code and formatted message.
func Errf(code, format string, args ...any) Result {
	return Result{Status: StatusError, Error: &Error{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// NotSignedIn is the structured answer for side-effecting tools invoked
// without a verified subject. The model relays it to the user; the HTTP
// response stays 200.
func NotSignedIn() Result {
	return Result{
		Status:  StatusError,
		Message: "The user is not signed in.",
		Error: &Error{
			Code:    ErrCodeUnauthenticated,
			Message: "sign in is required for this action",
		},
	}
}

// RequireSubject extracts the verified subject from the context.
// ok is false when the request is unauthenticated; callers return the
// accompanying NotSignedIn result without touching any store.
func RequireSubject(ctx context.Context) (subject string, denied Result, ok bool) {
	subject = auth.SubjectFromContext(ctx)
	if subject == "" {
		return "", NotSignedIn(), false
	}
	return subject, Result{}, true
}
