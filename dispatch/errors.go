package dispatch

import (
	"fmt"
	"strings"
)

// DispatchError is the base error type for all dispatch-layer errors.
type DispatchError struct {
	Message string
	Cause   error
}

func (e *DispatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// DuplicateToolError is returned when a tool name is registered twice.
// Registry corruption is the one dispatch failure considered fatal to
// the host process.
type DuplicateToolError struct {
	DispatchError
	Tool string
}

// UnknownToolError is returned when a tool call names an unregistered tool.
type UnknownToolError struct {
	DispatchError
	Tool string
}

// UnauthorizedToolError is returned when the caller's profile does not
// allow the requested tool.
type UnauthorizedToolError struct {
	DispatchError
	Tool   string
	Caller string
}

// InvalidArgumentsError is returned when tool call arguments do not match
// the capability's declared schema. The offending keys are recorded so
// the failure can be surfaced back to the agent as usable context.
type InvalidArgumentsError struct {
	DispatchError
	Tool     string
	Missing  []string
	Extra    []string
	Mistyped []string
}

func (e *InvalidArgumentsError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "extra: "+strings.Join(e.Extra, ", "))
	}
	if len(e.Mistyped) > 0 {
		parts = append(parts, "mistyped: "+strings.Join(e.Mistyped, ", "))
	}
	return fmt.Sprintf("invalid arguments for tool %s (%s)", e.Tool, strings.Join(parts, "; "))
}

// ApprovalRequiredError is returned when a side-effecting tool is
// dispatched through a dispatcher that has no approval gate. The
// capability is never invoked without a recorded approval decision.
type ApprovalRequiredError struct {
	DispatchError
	Tool string
}

// ToolExecutionError wraps a failure from the capability itself. The
// underlying cause is preserved; the dispatcher never retries on its own.
type ToolExecutionError struct {
	DispatchError
	Tool string
}

func newDuplicateToolError(tool string) *DuplicateToolError {
	return &DuplicateToolError{
		DispatchError: DispatchError{Message: fmt.Sprintf("tool %s is already registered", tool)},
		Tool:          tool,
	}
}

func newUnknownToolError(tool string) *UnknownToolError {
	return &UnknownToolError{
		DispatchError: DispatchError{Message: fmt.Sprintf("unknown tool: %s", tool)},
		Tool:          tool,
	}
}

func newUnauthorizedToolError(tool, caller string) *UnauthorizedToolError {
	return &UnauthorizedToolError{
		DispatchError: DispatchError{Message: fmt.Sprintf("caller %s is not authorized for tool %s", caller, tool)},
		Tool:          tool,
		Caller:        caller,
	}
}

func newApprovalRequiredError(tool string) *ApprovalRequiredError {
	return &ApprovalRequiredError{
		DispatchError: DispatchError{Message: fmt.Sprintf("tool %s is side-effecting and no approval gate is configured", tool)},
		Tool:          tool,
	}
}

func newToolExecutionError(tool string, cause error) *ToolExecutionError {
	return &ToolExecutionError{
		DispatchError: DispatchError{Message: fmt.Sprintf("tool %s failed", tool), Cause: cause},
		Tool:          tool,
	}
}
