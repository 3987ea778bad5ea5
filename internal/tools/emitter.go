package tools

import "context"

// emitterKey uses an empty struct for a zero-allocation context key.
type emitterKey struct{}

// Emitter receives tool lifecycle events during a streamed request.
//
// The chat handler binds an emitter to the response stream and stores it
// in the request context; Define-wrapped tools report through it so the
// client sees tool results interleaved with text, in production order.
// Frame formatting is the transport layer's concern, not the tool's.
type Emitter interface {
	// ToolStart signals that a tool has begun executing.
	ToolStart(name string)

	// ToolResult delivers the structured outcome of a tool call,
	// success or business failure alike.
	ToolResult(name string, result Result)
}

// EmitterFromContext retrieves the Emitter from the context.
// Returns nil when unset; non-streaming code paths simply emit nothing.
func EmitterFromContext(ctx context.Context) Emitter {
	emitter, _ := ctx.Value(emitterKey{}).(Emitter)
	return emitter
}

// ContextWithEmitter stores the Emitter in the context for per-request binding.
func ContextWithEmitter(ctx context.Context, emitter Emitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}
