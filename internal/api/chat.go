package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/attuneapp/attune/internal/auth"
	"github.com/attuneapp/attune/internal/chat"
	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/tools"
)

const (
	// maxRequestBodySize caps the POST /chat body (1 MB).
	maxRequestBodySize = 1 << 20

	// requestTimeout is the overall budget for one conversation turn,
	// covering the model loop and every tool call inside it.
	requestTimeout = 120 * time.Second
)

// streamBinder lazily opens the SSE stream on the first frame.
//
// The HTTP status is decided by whoever writes first: failures before
// any frame produce a JSON 500, failures after become an error frame on
// the already-open stream.
type streamBinder struct {
	mu     sync.Mutex
	w      http.ResponseWriter
	logger log.Logger
	sw     *sseWriter
}

// writer opens the stream on first use.
func (b *streamBinder) writer() *sseWriter {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sw == nil {
		sw, err := newSSEWriter(b.w, b.logger)
		if err != nil {
			// No Flusher means no streaming transport at all; tests and
			// production both use writers that support it.
			b.logger.Error("opening stream", "error", err)
			return nil
		}
		b.sw = sw
	}
	return b.sw
}

// started reports whether any frame has been written.
func (b *streamBinder) started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sw != nil
}

// Text forwards a model text chunk.
func (b *streamBinder) Text(delta string) {
	if sw := b.writer(); sw != nil {
		sw.Text(delta)
	}
}

// ToolStart implements tools.Emitter.
func (b *streamBinder) ToolStart(name string) {
	if sw := b.writer(); sw != nil {
		sw.ToolStart(name)
	}
}

// ToolResult implements tools.Emitter.
func (b *streamBinder) ToolResult(name string, result tools.Result) {
	if sw := b.writer(); sw != nil {
		sw.ToolResult(name, result)
	}
}

// Done closes the logical stream.
func (b *streamBinder) Done(finalText string) {
	if sw := b.writer(); sw != nil {
		sw.Done(finalText)
	}
}

// Error sends a terminal error frame.
func (b *streamBinder) Error(code, message string) {
	if sw := b.writer(); sw != nil {
		sw.Error(code, message)
	}
}

// handleChat runs one conversation turn and streams the response.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := s.logger

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeErrorDetails(w, http.StatusBadRequest, "request body too large",
				[]FieldError{{Field: "body", Message: "body exceeds 1 MB"}}, logger)
			return
		}
		writeErrorDetails(w, http.StatusBadRequest, "malformed JSON body",
			[]FieldError{{Field: "body", Message: err.Error()}}, logger)
		return
	}

	if violations := validateChatRequest(&req); len(violations) > 0 {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request", violations, logger)
		return
	}

	normalized, err := chat.Normalize(req.Messages)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrConversationTooLong):
			writeErrorDetails(w, http.StatusBadRequest, "conversation too long",
				[]FieldError{{Field: "messages", Message: err.Error()}}, logger)
		case errors.Is(err, chat.ErrNoUserMessage):
			writeErrorDetails(w, http.StatusBadRequest, "invalid request",
				[]FieldError{{Field: "messages", Message: "at least one user message with content is required"}}, logger)
		default:
			writeError(w, http.StatusInternalServerError, "internal server error", logger)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	subject := auth.SubjectFromContext(ctx)
	binder := &streamBinder{w: w, logger: logger}
	ctx = tools.ContextWithEmitter(ctx, binder)

	resp, err := s.agent.ExecuteStream(ctx, normalized, subject != "",
		func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			binder.Text(chunk.Text())
			return nil
		})
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; nothing left to write.
			logger.Debug("request canceled mid-generation",
				"request_id", requestIDFromContext(r.Context()))
			return
		}
		logger.Error("chat generation failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		if binder.started() {
			binder.Error("generation_failed", "the model could not complete the response")
			return
		}
		writeErrorDetails(w, http.StatusInternalServerError, "model unavailable",
			map[string]string{"reason": "the language model did not produce a response"}, logger)
		return
	}

	binder.Done(resp.FinalText)
}
