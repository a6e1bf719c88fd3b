package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ToolCall is an agent-issued request to invoke a named tool. It is
// immutable once created.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Caller    string         `json:"caller,omitempty"`
	TurnID    string         `json:"turn_id,omitempty"`
}

// NewToolCall creates a ToolCall with a fresh identifier.
func NewToolCall(name string, arguments map[string]any) ToolCall {
	return ToolCall{
		ID:        "call_" + uuid.New().String()[:8],
		Name:      name,
		Arguments: arguments,
	}
}

// ToolResult is the outcome of dispatching a single ToolCall. Exactly one
// ToolResult exists per dispatched call; dispatch failures are carried as
// an error result so they can be folded back into the conversation.
type ToolResult struct {
	CallID     string        `json:"call_id"`
	Tool       string        `json:"tool"`
	Content    string        `json:"content,omitempty"`
	IsError    bool          `json:"is_error,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"duration_ms"`
}

// ErrorResult builds a ToolResult describing a failed dispatch.
func ErrorResult(call ToolCall, err error) *ToolResult {
	return &ToolResult{
		CallID:  call.ID,
		Tool:    call.Name,
		IsError: true,
		Error:   err.Error(),
	}
}

// ParseArguments unmarshals raw JSON tool arguments into a map.
func ParseArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

// GetStringArg extracts a string argument from parsed tool arguments.
func GetStringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetIntArg extracts an integer argument from parsed tool arguments.
func GetIntArg(args map[string]any, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// GetBoolArg extracts a boolean argument from parsed tool arguments.
func GetBoolArg(args map[string]any, key string) (bool, bool) {
	v, ok := args[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}
