// Package tools provides the declarative tool registry for the attune agent.
//
// # Architecture
//
// Each tool is a named, schema-validated, server-executed capability
// exposed to the language model. Tools are grouped into toolsets by
// domain (tasks, memory, meditation, flights, weather, system); each
// toolset is a struct holding its dependencies, with a RegisterXxx
// function that wires its tools into Genkit.
//
// # Design Principles
//
//   - Dependency injection: stores and clients are passed to toolset
//     constructors; tools capture them via methods, never package state.
//   - Validation before execution: model-supplied arguments are checked
//     against the tool's declared schema (and any domain Validate method)
//     before the executor runs. Malformed arguments never reach an executor.
//   - Business failures are values: a tool that cannot do its job returns
//     Result{Status: StatusError} so the model can narrate the failure.
//     Only infrastructure failures (context cancellation) surface as Go
//     errors and abort the turn.
//   - Signed-in gating: side-effecting tools require a verified subject
//     from the request context and answer "not signed in" otherwise.
//
// The registry is immutable after startup: Names() is the single source
// of truth for the registered tool set.
package tools
