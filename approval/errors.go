package approval

import "fmt"

// ApprovalDeniedError reports that the operator denied a tool call. It is
// an expected outcome, not a system fault: flows fold it back into the
// conversation so the agent can propose an alternative.
type ApprovalDeniedError struct {
	RequestID string
	Tool      string
	Note      string
}

func (e *ApprovalDeniedError) Error() string {
	if e.Note != "" {
		return fmt.Sprintf("approval denied for tool %s: %s", e.Tool, e.Note)
	}
	return fmt.Sprintf("approval denied for tool %s", e.Tool)
}

// ApprovalTimeoutError reports that no decision arrived before the gate's
// timeout, or that the waiting flow was cancelled. The underlying request
// has transitioned to expired.
type ApprovalTimeoutError struct {
	RequestID string
	Tool      string
	Cancelled bool
	Cause     error
}

func (e *ApprovalTimeoutError) Error() string {
	if e.Cancelled {
		return fmt.Sprintf("approval wait cancelled for tool %s", e.Tool)
	}
	return fmt.Sprintf("approval timed out for tool %s", e.Tool)
}

func (e *ApprovalTimeoutError) Unwrap() error {
	return e.Cause
}
