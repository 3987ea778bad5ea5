package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/jsonschema-go/jsonschema"
)

// defaultCallTimeout is the per-tool-call time budget. Tool executors make
// outbound calls (stores, external APIs); a hung collaborator must not
// stall the whole conversation turn.
const defaultCallTimeout = 30 * time.Second

// Validator is implemented by tool input types with domain constraints
// beyond what the JSON schema expresses (non-empty strings, ranges,
// cross-field rules). A non-nil error means the arguments are rejected
// before the executor runs.
type Validator interface {
	Validate() error
}

// Define registers a typed tool with Genkit, wrapping the handler with the
// standard pipeline: schema validation, domain validation, lifecycle
// events, per-call timeout, and panic containment.
//
// The declared input schema is derived from In at registration time via
// google/jsonschema-go; arguments that violate it produce a
// Result{ErrCodeValidation} and the handler is never invoked.
func Define[In any](g *genkit.Genkit, name, description string, handler func(*ai.ToolContext, In) (Result, error)) (ai.Tool, error) {
	schema, err := jsonschema.For[In](nil)
	if err != nil {
		return nil, fmt.Errorf("deriving schema for %s: %w", name, err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving schema for %s: %w", name, err)
	}

	wrapped := func(tctx *ai.ToolContext, input In) (result Result, err error) {
		ctx := tctx.Context
		if ctx == nil {
			ctx = context.Background()
		}

		emitter := EmitterFromContext(ctx)
		if emitter != nil {
			emitter.ToolStart(name)
		}
		defer func() {
			if emitter != nil {
				emitter.ToolResult(name, result)
			}
		}()

		if violation := validateArgs(resolved, input); violation != nil {
			return Result{Status: StatusError, Error: violation}, nil
		}

		callCtx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
		defer cancel()
		scoped := *tctx
		scoped.Context = callCtx

		result, err = invoke(&scoped, name, handler, input)
		if err != nil {
			// Request cancellation is the only error that aborts the turn;
			// everything else is narrated to the model as a structured result.
			if ctx.Err() != nil {
				return Result{}, fmt.Errorf("%s canceled: %w", name, ctx.Err())
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return Errf(ErrCodeTimeout, "%s exceeded its time budget", name), nil
			}
			return Errf(ErrCodeExecution, "%s", err.Error()), nil
		}
		return result, nil
	}

	return genkit.DefineTool(g, name, description, wrapped), nil
}

// invoke runs the handler with panic containment. A panicking executor
// becomes an ExecutionFailed result instead of tearing down the stream.
func invoke[In any](tctx *ai.ToolContext, name string, handler func(*ai.ToolContext, In) (Result, error), input In) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = Errf(ErrCodeExecution, "%s panicked: %v", name, r)
			err = nil
		}
	}()
	return handler(tctx, input)
}

// validateArgs checks the decoded arguments against the declared schema
// and any domain Validate method. Returns nil when the arguments are
// acceptable.
func validateArgs(resolved *jsonschema.Resolved, input any) *Error {
	// Round-trip through JSON so schema validation sees the wire shape
	// (maps and float64s), matching what the model actually sent.
	raw, err := json.Marshal(input)
	if err != nil {
		return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf("arguments not serializable: %v", err)}
	}
	var wire any
	if err := json.Unmarshal(raw, &wire); err != nil {
		return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf("arguments not decodable: %v", err)}
	}
	if err := resolved.Validate(wire); err != nil {
		return &Error{
			Code:    ErrCodeValidation,
			Message: "arguments violate the tool's parameter schema",
			Details: map[string]any{"violation": err.Error()},
		}
	}

	if v, ok := input.(Validator); ok {
		if err := v.Validate(); err != nil {
			return &Error{
				Code:    ErrCodeValidation,
				Message: "arguments rejected",
				Details: map[string]any{"violation": err.Error()},
			}
		}
	}
	return nil
}
