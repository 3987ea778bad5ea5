// Package api exposes the HTTP surface: the streaming chat endpoint,
// health probes, and the middleware stack (recovery, request IDs,
// logging, CORS, rate limiting, the identity gate).
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/attuneapp/attune/internal/auth"
	"github.com/attuneapp/attune/internal/chat"
	"github.com/attuneapp/attune/internal/log"
)

// ChatAgent is the conversational engine the server drives.
type ChatAgent interface {
	ExecuteStream(ctx context.Context, messages []chat.NormalizedMessage, signedIn bool, callback chat.StreamCallback) (*chat.Response, error)
}

// Config contains all required parameters for the Server.
type Config struct {
	Logger log.Logger
	Agent  ChatAgent

	// Identity gate.
	Verifier      auth.Verifier
	BypassSubject string // non-empty only in development

	// Transport policy.
	AllowedOrigins []string
	TrustProxy     bool
	RateLimit      float64 // tokens per second per IP
	RateBurst      int

	// Ready reports whether downstream dependencies answer (nil skips
	// the check).
	Ready func(ctx context.Context) error
}

func (cfg Config) validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Agent == nil {
		return errors.New("agent is required")
	}
	if cfg.Verifier == nil && cfg.BypassSubject == "" {
		return errors.New("verifier is required unless bypass is active")
	}
	return nil
}

// Server is the HTTP front end. Create with NewServer; the zero value is
// not usable.
type Server struct {
	handler http.Handler
	logger  log.Logger
	agent   ChatAgent
	ready   func(ctx context.Context) error
}

// NewServer assembles the router and middleware chain.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}

	s := &Server{
		logger: cfg.Logger,
		agent:  cfg.Agent,
		ready:  cfg.Ready,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	// The identity gate wraps only the chat endpoint; probes stay open.
	authn := authMiddleware(cfg.Verifier, cfg.BypassSubject, cfg.Logger)
	mux.Handle("POST /chat", authn(http.HandlerFunc(s.handleChat)))

	// Outermost first. CORS sits before rate limiting so preflights are
	// never throttled; OPTIONS short-circuits inside the CORS layer.
	var h http.Handler = mux
	h = rateLimitMiddleware(newRateLimiter(rps, burst), cfg.TrustProxy, cfg.Logger)(h)
	h = corsMiddleware(cfg.AllowedOrigins)(h)
	h = loggingMiddleware(cfg.Logger)(h)
	h = requestIDMiddleware()(h)
	h = recoveryMiddleware(cfg.Logger)(h)
	s.handler = h

	return s, nil
}

// Handler returns the assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
