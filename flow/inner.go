package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/martinemde/teamflow/agent"
	"github.com/martinemde/teamflow/approval"
	"github.com/martinemde/teamflow/dispatch"
)

// DefaultMaxRounds bounds the number of agent turns in one inner run.
const DefaultMaxRounds = 12

// DefaultRepeatWindow is the tool-call window inspected for repeating
// call patterns.
const DefaultRepeatWindow = 6

// InnerConfig tunes a single inner run.
type InnerConfig struct {
	// MaxRounds is the maximum number of agent turns before the run is
	// cut off. Zero selects DefaultMaxRounds.
	MaxRounds int

	// RepeatWindow is the number of recent tool calls inspected for a
	// repeating pattern. Negative disables detection; zero selects
	// DefaultRepeatWindow.
	RepeatWindow int

	// OutputCharLimits and OutputLineLimits override the default
	// truncation bounds per tool name.
	OutputCharLimits map[string]int
	OutputLineLimits map[string]int

	// Retry governs agent invocation retries.
	Retry agent.RetryPolicy

	// Emitter receives progress events. Nil disables emission.
	Emitter *EventEmitter
}

func (c InnerConfig) maxRounds() int {
	if c.MaxRounds <= 0 {
		return DefaultMaxRounds
	}
	return c.MaxRounds
}

func (c InnerConfig) repeatWindow() int {
	if c.RepeatWindow < 0 {
		return 0
	}
	if c.RepeatWindow == 0 {
		return DefaultRepeatWindow
	}
	return c.RepeatWindow
}

// InnerFlow drives one bounded multi-agent conversation per subtask.
// Agents speak in round-robin order; tool calls go through the
// dispatcher; dispatch failures are folded back into the conversation as
// error tool turns so the agents can react to them.
//
// An InnerFlow is reusable across subtasks but each Run owns a fresh
// Conversation. It is not safe to share one InnerFlow across concurrent
// Runs when its agents carry per-call state.
type InnerFlow struct {
	agents     []agent.Agent
	dispatcher *dispatch.Dispatcher
	cfg        InnerConfig
}

// NewInnerFlow creates an InnerFlow over the given agents. At least one
// agent is required.
func NewInnerFlow(agents []agent.Agent, dispatcher *dispatch.Dispatcher, cfg InnerConfig) (*InnerFlow, error) {
	if len(agents) == 0 {
		return nil, errors.New("inner flow requires at least one agent")
	}
	if dispatcher == nil {
		return nil, errors.New("inner flow requires a dispatcher")
	}
	return &InnerFlow{agents: agents, dispatcher: dispatcher, cfg: cfg}, nil
}

// Run executes the conversation for one subtask until a final answer,
// the round limit, or cancellation. The returned result is also stored
// on the subtask. A non-nil error is returned only for cancellation;
// every other failure mode is expressed in the result.
func (f *InnerFlow) Run(ctx context.Context, subtask *Subtask) (*SubtaskResult, error) {
	conv := NewConversation()
	conv.Append(NewInstructionTurn(subtask.Instructions()))

	f.emit(EventSubtaskStart, map[string]any{
		"subtask_id":   subtask.ID(),
		"conversation": conv.ID(),
	})

	maxRounds := f.cfg.maxRounds()
	lastText := ""
	rounds := 0

	for rounds < maxRounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		speaker := f.agents[rounds%len(f.agents)]
		rounds++

		proposal, err := f.propose(ctx, speaker, conv)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return f.finish(subtask, &SubtaskResult{
				SubtaskID: subtask.ID(),
				Status:    SubtaskFailed,
				Rounds:    rounds,
				Err:       err,
			}), nil
		}

		if proposal.ToolCall != nil {
			if proposal.Text != "" {
				lastText = proposal.Text
			}
			if _, err := f.runTool(ctx, speaker, proposal, conv); err != nil {
				return nil, err
			}
			continue
		}

		text := proposal.Text
		if answer, ok := agent.ExtractFinalAnswer(text); ok {
			f.appendTurn(conv, NewAgentTurn(speaker.Profile().Name(), text, nil))
			return f.finish(subtask, &SubtaskResult{
				SubtaskID: subtask.ID(),
				Status:    SubtaskSucceeded,
				Answer:    answer,
				Rounds:    rounds,
			}), nil
		}
		if proposal.Final {
			f.appendTurn(conv, NewAgentTurn(speaker.Profile().Name(), text, nil))
			return f.finish(subtask, &SubtaskResult{
				SubtaskID: subtask.ID(),
				Status:    SubtaskSucceeded,
				Answer:    text,
				Rounds:    rounds,
			}), nil
		}

		if text != "" {
			lastText = text
		}
		f.appendTurn(conv, NewAgentTurn(speaker.Profile().Name(), text, nil))
	}

	f.emit(EventRoundLimit, map[string]any{
		"subtask_id": subtask.ID(),
		"rounds":     rounds,
	})

	limitErr := &RoundLimitExceededError{SubtaskID: subtask.ID(), Rounds: rounds}
	result := &SubtaskResult{
		SubtaskID: subtask.ID(),
		Status:    SubtaskFailed,
		Rounds:    rounds,
		Err:       limitErr,
	}
	if lastText != "" {
		result.Status = SubtaskPartial
		result.Answer = lastText
	}
	return f.finish(subtask, result), nil
}

// propose asks the speaker for its next move under the retry policy.
func (f *InnerFlow) propose(ctx context.Context, speaker agent.Agent, conv *Conversation) (*agent.Proposal, error) {
	history := ToMessages(conv.History())
	proposal, err := agent.Retry(ctx, f.cfg.Retry, func(ctx context.Context) (*agent.Proposal, error) {
		return speaker.Propose(ctx, history)
	})
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, fmt.Errorf("agent %s returned no proposal", speaker.Profile().Name())
	}
	return proposal, nil
}

// runTool dispatches the proposal's tool call and folds the outcome back
// into the conversation. Only cancellation is returned as an error.
func (f *InnerFlow) runTool(ctx context.Context, speaker agent.Agent, proposal *agent.Proposal, conv *Conversation) (*dispatch.ToolResult, error) {
	profile := speaker.Profile()
	call := *proposal.ToolCall
	call.Caller = profile.Name()

	agentTurn := NewAgentTurn(profile.Name(), proposal.Text, &call)
	call.TurnID = agentTurn.ID
	f.appendTurn(conv, agentTurn)

	window := f.cfg.repeatWindow()
	if window > 0 && DetectRepeat(conv.History(), window) {
		f.emit(EventRepeatDetected, map[string]any{
			"tool":   call.Name,
			"window": window,
		})
		f.appendTurn(conv, NewSteeringTurn(
			"You appear to be repeating the same tool calls. Change your approach "+
				"or state your final answer with what you already know."))
	}

	f.emit(EventToolDispatched, map[string]any{
		"call_id": call.ID,
		"tool":    call.Name,
		"caller":  call.Caller,
	})

	result, err := f.dispatcher.Dispatch(ctx, call, profile)
	if err != nil {
		var timeout *approval.ApprovalTimeoutError
		if errors.As(err, &timeout) && timeout.Cancelled {
			return nil, ctx.Err()
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var denied *approval.ApprovalDeniedError
		switch {
		case errors.As(err, &denied):
			f.emit(EventApprovalDenied, map[string]any{"tool": call.Name, "note": denied.Note})
		case errors.As(err, &timeout):
			f.emit(EventApprovalExpired, map[string]any{"tool": call.Name})
		}
		result = dispatch.ErrorResult(call, err)
	} else {
		result.Content = TruncateToolOutput(result.Content, call.Name,
			f.cfg.OutputCharLimits, f.cfg.OutputLineLimits)
	}

	f.emit(EventToolResult, map[string]any{
		"call_id":  result.CallID,
		"tool":     result.Tool,
		"is_error": result.IsError,
	})
	f.appendTurn(conv, NewToolTurn(result))
	return result, nil
}

func (f *InnerFlow) appendTurn(conv *Conversation, turn Turn) {
	conv.Append(turn)
	f.emit(EventTurnAppended, map[string]any{
		"turn_id": turn.ID,
		"kind":    string(turn.Kind),
		"speaker": turn.Speaker,
	})
}

func (f *InnerFlow) finish(subtask *Subtask, result *SubtaskResult) *SubtaskResult {
	subtask.setResult(result)
	data := map[string]any{
		"subtask_id": subtask.ID(),
		"status":     string(result.Status),
		"rounds":     result.Rounds,
	}
	if result.Err != nil {
		data["error"] = result.Err.Error()
	}
	f.emit(EventSubtaskEnd, data)
	return result
}

func (f *InnerFlow) emit(kind EventKind, data map[string]any) {
	f.cfg.Emitter.Emit(kind, data)
}
