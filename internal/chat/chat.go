// Package chat runs the conversational agent: it takes a normalized
// conversation, generates a streamed model response with tool calling,
// and returns the final text. The agent holds no per-conversation
// state; every request carries its full history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/attuneapp/attune/internal/log"
)

// fallbackResponseMessage is returned when the model produces an empty
// response with no tool requests.
const fallbackResponseMessage = "I'm sorry, I couldn't come up with a response. Could you rephrase that?"

// Response represents the complete result of an agent execution.
type Response struct {
	FinalText    string            // Model's final text output
	ToolRequests []*ai.ToolRequest // Tool requests made during execution
}

// StreamCallback is called for each chunk of streaming response.
// Return an error to abort the stream.
type StreamCallback func(ctx context.Context, chunk *ai.ModelResponseChunk) error

// Config contains all required parameters for the Agent.
type Config struct {
	Genkit *genkit.Genkit
	Logger log.Logger
	Tools  []ai.Tool // Pre-registered tools from RegisterXxx()

	ModelName string // Provider-qualified model name (e.g. "googleai/gemini-2.5-flash")
	MaxTurns  int    // Maximum agentic loop turns

	RetryConfig RetryConfig   // LLM retry settings (zero-value uses defaults)
	RateLimiter *rate.Limiter // Proactive provider rate limiting (nil = default)
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if len(cfg.Tools) == 0 {
		return errors.New("at least one tool is required")
	}
	return nil
}

// Agent is the conversational engine.
//
// All configuration is captured immutably at construction, so a single
// Agent serves concurrent requests without locking.
type Agent struct {
	modelName string
	maxTurns  int

	retryConfig RetryConfig
	rateLimiter *rate.Limiter

	g         *genkit.Genkit
	logger    log.Logger
	tools     []ai.Tool
	toolRefs  []ai.ToolRef // cached at construction (ai.Tool implements ai.ToolRef)
	toolNames string       // cached comma-separated for logging
}

// New creates an Agent.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 8
	}

	retryConfig := cfg.RetryConfig
	if retryConfig.MaxRetries == 0 {
		retryConfig = DefaultRetryConfig()
	}

	// Default: 10 requests/sec sustained, burst of 30.
	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	toolRefs := make([]ai.ToolRef, len(cfg.Tools))
	names := make([]string, len(cfg.Tools))
	for i, t := range cfg.Tools {
		toolRefs[i] = t
		names[i] = t.Name()
	}

	a := &Agent{
		modelName:   cfg.ModelName,
		maxTurns:    maxTurns,
		retryConfig: retryConfig,
		rateLimiter: rl,
		g:           cfg.Genkit,
		logger:      cfg.Logger,
		tools:       cfg.Tools,
		toolRefs:    toolRefs,
		toolNames:   strings.Join(names, ", "),
	}

	a.logger.Info("chat agent initialized",
		"totalTools", len(a.tools),
		"maxTurns", a.maxTurns,
	)

	return a, nil
}

// Execute runs the agent without streaming.
func (a *Agent) Execute(ctx context.Context, messages []NormalizedMessage, signedIn bool) (*Response, error) {
	return a.ExecuteStream(ctx, messages, signedIn, nil)
}

// ExecuteStream runs the agent over a normalized conversation with
// optional streaming output. signedIn selects the prompt variant; the
// per-tool subject gate still decides what each tool may do.
func (a *Agent) ExecuteStream(ctx context.Context, messages []NormalizedMessage, signedIn bool, callback StreamCallback) (*Response, error) {
	if len(messages) == 0 {
		return nil, ErrNoUserMessage
	}

	a.logger.Debug("executing chat agent",
		"messages", len(messages),
		"signed_in", signedIn,
		"streaming", callback != nil,
		"tools", a.toolNames,
	)

	opts := []ai.GenerateOption{
		ai.WithSystem(systemPrompt(signedIn, time.Now())),
		ai.WithMessages(ToModelMessages(messages)...),
		ai.WithTools(a.toolRefs...),
		ai.WithMaxTurns(a.maxTurns),
	}
	if a.modelName != "" {
		opts = append(opts, ai.WithModelName(a.modelName))
	}
	if callback != nil {
		opts = append(opts, ai.WithStreaming(callback))
	}

	resp, err := a.generateWithRetry(ctx, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("generation canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	responseText := resp.Text()

	// Only apply fallback when truly empty: no text AND no tool requests.
	if strings.TrimSpace(responseText) == "" && len(resp.ToolRequests()) == 0 {
		a.logger.Warn("model returned empty response with no tool requests")
		responseText = fallbackResponseMessage
	}

	return &Response{
		FinalText:    responseText,
		ToolRequests: resp.ToolRequests(),
	}, nil
}
