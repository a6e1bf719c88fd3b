package flow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/martinemde/teamflow/agent"
	"github.com/martinemde/teamflow/dispatch"
)

// TurnKind discriminates between turn types.
type TurnKind string

const (
	TurnInstruction TurnKind = "instruction"
	TurnAgent       TurnKind = "agent"
	TurnTool        TurnKind = "tool"
	TurnSteering    TurnKind = "steering"
)

// Turn is a single entry in a conversation. Turns are never mutated
// after creation.
type Turn struct {
	ID         string               `json:"id"`
	Kind       TurnKind             `json:"kind"`
	Speaker    string               `json:"speaker,omitempty"`
	Text       string               `json:"text,omitempty"`
	ToolCall   *dispatch.ToolCall   `json:"tool_call,omitempty"`
	ToolResult *dispatch.ToolResult `json:"tool_result,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

func newTurn(kind TurnKind) Turn {
	return Turn{
		ID:        "turn_" + uuid.New().String()[:8],
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// NewInstructionTurn creates the seeding turn carrying the subtask
// instructions.
func NewInstructionTurn(text string) Turn {
	t := newTurn(TurnInstruction)
	t.Text = text
	return t
}

// NewAgentTurn creates a Turn for an agent utterance, optionally
// carrying a tool call.
func NewAgentTurn(speaker, text string, call *dispatch.ToolCall) Turn {
	t := newTurn(TurnAgent)
	t.Speaker = speaker
	t.Text = text
	t.ToolCall = call
	return t
}

// NewToolTurn creates the synthetic Turn carrying a tool result (or the
// error kind of a failed dispatch, surfaced as context for the agents).
func NewToolTurn(result *dispatch.ToolResult) Turn {
	t := newTurn(TurnTool)
	t.Speaker = result.Tool
	t.ToolResult = result
	return t
}

// NewSteeringTurn creates an injected steering message.
func NewSteeringTurn(text string) Turn {
	t := newTurn(TurnSteering)
	t.Text = text
	return t
}

// Conversation is the append-only turn sequence of one inner run. It is
// owned exclusively by that run and never shared across runs.
type Conversation struct {
	id    string
	mu    sync.Mutex
	turns []Turn
}

// NewConversation creates an empty Conversation.
func NewConversation() *Conversation {
	return &Conversation{id: "conv_" + uuid.New().String()[:8]}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string { return c.id }

// Append adds a turn to the end of the sequence.
func (c *Conversation) Append(turn Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turn)
}

// History returns a copy of the turn sequence.
func (c *Conversation) History() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := make([]Turn, len(c.turns))
	copy(h, c.turns)
	return h
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// AgentTurns returns how many agent turns the conversation holds.
func (c *Conversation) AgentTurns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, turn := range c.turns {
		if turn.Kind == TurnAgent {
			count++
		}
	}
	return count
}

// ToMessages converts a turn history into the message form agents
// consume.
func ToMessages(history []Turn) []agent.Message {
	messages := make([]agent.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Kind {
		case TurnInstruction:
			messages = append(messages, agent.Message{
				Role:    agent.RoleInstruction,
				Content: turn.Text,
			})
		case TurnAgent:
			content := turn.Text
			if turn.ToolCall != nil {
				if content != "" {
					content += "\n"
				}
				content += "(requested tool " + turn.ToolCall.Name + ")"
			}
			messages = append(messages, agent.Message{
				Role:    agent.RoleAgent,
				Speaker: turn.Speaker,
				Content: content,
			})
		case TurnTool:
			if turn.ToolResult == nil {
				continue
			}
			content := turn.ToolResult.Content
			if turn.ToolResult.IsError {
				content = turn.ToolResult.Error
			}
			messages = append(messages, agent.Message{
				Role:    agent.RoleTool,
				Speaker: turn.ToolResult.Tool,
				Content: content,
				IsError: turn.ToolResult.IsError,
			})
		case TurnSteering:
			messages = append(messages, agent.Message{
				Role:    agent.RoleSteering,
				Content: turn.Text,
			})
		}
	}
	return messages
}
