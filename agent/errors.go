package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AgentInvocationError wraps a failed call to the external language
// model. Retryable failures (timeouts, rate limits, server errors) are
// retried by the flow up to its configured bound; the rest fail the
// subtask's current attempt immediately.
type AgentInvocationError struct {
	Agent     string
	Message   string
	Cause     error
	Retryable bool
}

func (e *AgentInvocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("agent %s: %s: %v", e.Agent, e.Message, e.Cause)
	}
	return fmt.Sprintf("agent %s: %s", e.Agent, e.Message)
}

func (e *AgentInvocationError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether an agent invocation error is safe to retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var inv *AgentInvocationError
	if errors.As(err, &inv) {
		return inv.Retryable
	}
	// Unknown failures default to retryable; the retry bound caps the cost.
	return true
}

// classifyInvocationError maps a raw model error onto an
// AgentInvocationError with a retryability verdict, based on the error
// text the provider surfaces.
func classifyInvocationError(agentName string, err error) *AgentInvocationError {
	msg := err.Error()
	lower := strings.ToLower(msg)

	retryable := true
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		retryable = true
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "invalid api key"), strings.Contains(lower, "invalid key"):
		retryable = false
	case strings.Contains(lower, "403"), strings.Contains(lower, "forbidden"):
		retryable = false
	case strings.Contains(lower, "404"), strings.Contains(lower, "not found"):
		retryable = false
	case strings.Contains(lower, "context length"), strings.Contains(lower, "too many tokens"):
		retryable = false
	case strings.Contains(lower, "400"), strings.Contains(lower, "invalid request"):
		retryable = false
	}

	return &AgentInvocationError{
		Agent:     agentName,
		Message:   "model call failed",
		Cause:     err,
		Retryable: retryable,
	}
}
