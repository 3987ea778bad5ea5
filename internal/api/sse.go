package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/attuneapp/attune/internal/log"
	"github.com/attuneapp/attune/internal/tools"
)

// sseWriter streams response frames as Server-Sent Events.
//
// Frames for one request are strictly ordered as produced: a mutex
// serializes writes so text chunks from the model callback and tool
// events from executors cannot interleave mid-frame.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	logger  log.Logger
}

// newSSEWriter prepares the response for streaming and sends the headers.
func newSSEWriter(w http.ResponseWriter, logger log.Logger) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher, logger: logger}, nil
}

// writeFrame sends one named event with a JSON payload and flushes.
func (s *sseWriter) writeFrame(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("encoding stream frame", "event", event, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		// Client disconnects surface here; the request context cancels
		// the generation loop, nothing else to do.
		s.logger.Debug("writing stream frame", "event", event, "error", err)
		return
	}
	s.flusher.Flush()
}

// Text sends an incremental model text chunk.
func (s *sseWriter) Text(delta string) {
	s.writeFrame("text", map[string]string{"delta": delta})
}

// Done closes the logical stream with the assembled final text.
func (s *sseWriter) Done(finalText string) {
	s.writeFrame("done", map[string]string{"finalText": finalText})
}

// Error sends a terminal error frame. Mid-stream failures cannot change
// the HTTP status, so this frame is the failure signal.
func (s *sseWriter) Error(code, message string) {
	s.writeFrame("error", map[string]string{"code": code, "message": message})
}

// ToolStart implements tools.Emitter.
func (s *sseWriter) ToolStart(name string) {
	s.writeFrame("tool", map[string]any{"name": name, "state": "start"})
}

// ToolResult implements tools.Emitter.
func (s *sseWriter) ToolResult(name string, result tools.Result) {
	s.writeFrame("tool", map[string]any{"name": name, "state": "result", "result": result})
}
