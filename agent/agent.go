package agent

import (
	"context"
	"strings"
	"sync"

	"github.com/martinemde/teamflow/dispatch"
)

// MessageRole discriminates history entries handed to an agent.
type MessageRole string

const (
	RoleInstruction MessageRole = "instruction"
	RoleAgent       MessageRole = "agent"
	RoleTool        MessageRole = "tool"
	RoleSteering    MessageRole = "steering"
)

// Message is one entry of the conversation history as an agent sees it.
type Message struct {
	Role    MessageRole `json:"role"`
	Speaker string      `json:"speaker,omitempty"`
	Content string      `json:"content"`
	IsError bool        `json:"is_error,omitempty"`
}

// Proposal is an agent's next move: an utterance, a tool call, or a
// final answer. At most one of ToolCall and Final is set.
type Proposal struct {
	Text     string             `json:"text,omitempty"`
	ToolCall *dispatch.ToolCall `json:"tool_call,omitempty"`
	Final    bool               `json:"final,omitempty"`
}

// Agent produces the next conversation move. Implementations must be
// stateless across calls beyond what the history carries, and must be
// safe to call again after a transient failure.
type Agent interface {
	Profile() *Profile
	Propose(ctx context.Context, history []Message) (*Proposal, error)
}

// FinalAnswerMarker is the sentinel an agent places in front of its
// final answer to end an inner run.
const FinalAnswerMarker = "FINAL ANSWER:"

// ExtractFinalAnswer reports whether text carries the final-answer
// sentinel and returns the answer that follows it.
func ExtractFinalAnswer(text string) (string, bool) {
	idx := strings.Index(text, FinalAnswerMarker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(text[idx+len(FinalAnswerMarker):]), true
}

// ScriptStep is one queued reply of a ScriptedAgent.
type ScriptStep struct {
	Proposal *Proposal
	Err      error
}

// ScriptedAgent replays a fixed sequence of steps. Once the script is
// exhausted it keeps signalling completion with an empty final answer.
type ScriptedAgent struct {
	profile *Profile
	mu      sync.Mutex
	steps   []ScriptStep
	calls   int
}

// NewScriptedAgent creates a ScriptedAgent for the profile.
func NewScriptedAgent(profile *Profile, steps ...ScriptStep) *ScriptedAgent {
	return &ScriptedAgent{profile: profile, steps: steps}
}

// Profile implements Agent.
func (a *ScriptedAgent) Profile() *Profile { return a.profile }

// Calls returns how many times Propose has been invoked.
func (a *ScriptedAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Propose implements Agent by popping the next scripted step.
func (a *ScriptedAgent) Propose(ctx context.Context, history []Message) (*Proposal, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++

	if len(a.steps) == 0 {
		return &Proposal{Final: true}, nil
	}
	step := a.steps[0]
	a.steps = a.steps[1:]
	if step.Err != nil {
		return nil, step.Err
	}
	return step.Proposal, nil
}
