// Package dispatch implements the dynamic tool dispatch layer.
//
// A Registry binds tool names to capabilities at startup, each with a
// declared argument schema and a side-effect classification. A Dispatcher
// resolves incoming tool calls against the registry, enforces the caller's
// allow-list, validates arguments, routes side-effecting calls through an
// approval gate, and invokes the capability exactly once per successful
// dispatch.
//
// The package also provides a Selector that analyzes a task description
// and proposes candidate tools, used by planners to seed decomposition.
//
// Error precedence during dispatch is fixed: unknown tool, then
// authorization, then argument validation, then approval, then execution.
// Each failure class is a distinct error type so callers can fold the
// outcome back into an agent conversation without losing the kind.
package dispatch
