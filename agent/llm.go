package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/teilomillet/gollm"

	"github.com/martinemde/teamflow/dispatch"
)

// LLMAgent backs the Agent interface with a gollm model. The agent's
// Profile supplies the system prompt; the tool definitions it is handed
// should already be filtered to the profile's allow-list.
type LLMAgent struct {
	profile     *Profile
	llm         gollm.LLM
	tools       []dispatch.ToolDefinition
	callTimeout time.Duration
}

// LLMAgentOption configures an LLMAgent.
type LLMAgentOption func(*LLMAgent)

// WithCallTimeout bounds a single model call. Zero disables the bound.
func WithCallTimeout(timeout time.Duration) LLMAgentOption {
	return func(a *LLMAgent) {
		if timeout < 0 {
			timeout = 0
		}
		a.callTimeout = timeout
	}
}

// NewLLMAgent creates an LLMAgent over an existing gollm LLM.
func NewLLMAgent(profile *Profile, llm gollm.LLM, tools []dispatch.ToolDefinition, opts ...LLMAgentOption) *LLMAgent {
	a := &LLMAgent{
		profile: profile,
		llm:     llm,
		tools:   tools,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// NewLLM builds a gollm LLM for the given provider and model, configured
// the way the flows expect: no library-level retries (the flow retries)
// and quiet logging.
func NewLLM(provider, model, apiKey string, opts ...gollm.ConfigOption) (gollm.LLM, error) {
	configOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		configOpts = append(configOpts, gollm.SetAPIKey(apiKey))
	}
	configOpts = append(configOpts, opts...)

	llm, err := gollm.NewLLM(configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM for provider %s: %w", provider, err)
	}
	return llm, nil
}

// Profile implements Agent.
func (a *LLMAgent) Profile() *Profile { return a.profile }

// Propose implements Agent: it renders the history into a prompt, calls
// the model, and parses the reply into a tool call, a final answer, or a
// plain utterance.
func (a *LLMAgent) Propose(ctx context.Context, history []Message) (*Proposal, error) {
	prompt := a.buildPrompt(history)

	callCtx := ctx
	if a.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.callTimeout)
		defer cancel()
	}

	text, err := a.llm.Generate(callCtx, prompt)
	if err != nil {
		return nil, classifyInvocationError(a.profile.Name(), err)
	}

	return ParseReply(text), nil
}

// buildPrompt renders the conversation history into a gollm prompt.
func (a *LLMAgent) buildPrompt(history []Message) *gollm.Prompt {
	var parts []string
	for _, msg := range history {
		switch msg.Role {
		case RoleInstruction:
			parts = append(parts, "[Task]: "+msg.Content)
		case RoleAgent:
			parts = append(parts, fmt.Sprintf("[%s]: %s", msg.Speaker, msg.Content))
		case RoleTool:
			prefix := "[Tool Result]"
			if msg.IsError {
				prefix = "[Tool Error]"
			}
			parts = append(parts, prefix+": "+msg.Content)
		case RoleSteering:
			parts = append(parts, "[Note]: "+msg.Content)
		}
	}
	promptText := strings.Join(parts, "\n")
	if promptText == "" {
		promptText = "Begin."
	}

	promptOpts := []gollm.PromptOption{
		gollm.WithSystemPrompt(a.systemPrompt(), gollm.CacheTypeEphemeral),
	}

	if len(a.tools) > 0 {
		tools := make([]gollm.Tool, 0, len(a.tools))
		for _, def := range a.tools {
			tools = append(tools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        def.Name,
					Description: def.Description,
					Parameters:  def.Schema.Parameters(),
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(tools), gollm.WithToolChoice("auto"))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// systemPrompt extends the profile prompt with the conversation
// protocol: how to call tools and how to signal completion.
func (a *LLMAgent) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(a.profile.SystemPrompt())
	sb.WriteString("\n\n")

	if len(a.tools) > 0 {
		sb.WriteString("To use a tool, reply with a single JSON object on its own line:\n")
		sb.WriteString(`{"tool": "<name>", "arguments": {<key>: <value>}}` + "\n")
		sb.WriteString("Available tools: ")
		names := make([]string, len(a.tools))
		for i, def := range a.tools {
			names[i] = def.Name
		}
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n\n")
	}

	sb.WriteString("When the task is complete, start your last line with \"")
	sb.WriteString(FinalAnswerMarker)
	sb.WriteString("\" followed by your answer.")
	return sb.String()
}

// ParseReply interprets raw model output as a Proposal. A tool-call JSON
// object wins over the final-answer sentinel; everything else is a plain
// utterance.
func ParseReply(text string) *Proposal {
	if call, remainder, ok := parseToolCall(text); ok {
		return &Proposal{Text: remainder, ToolCall: &call}
	}
	if answer, ok := ExtractFinalAnswer(text); ok {
		return &Proposal{Text: answer, Final: true}
	}
	return &Proposal{Text: strings.TrimSpace(text)}
}

// parseToolCall extracts the first tool-call JSON object embedded in the
// reply. Both the documented single-object form and the provider-style
// array form are accepted.
func parseToolCall(text string) (dispatch.ToolCall, string, bool) {
	if start := strings.Index(text, `{"tool"`); start >= 0 {
		var raw struct {
			Tool      string         `json:"tool"`
			Arguments map[string]any `json:"arguments"`
		}
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		if err := dec.Decode(&raw); err == nil && raw.Tool != "" {
			if raw.Arguments == nil {
				raw.Arguments = map[string]any{}
			}
			remainder := strings.TrimSpace(text[:start])
			return dispatch.NewToolCall(raw.Tool, raw.Arguments), remainder, true
		}
	}

	if start := strings.Index(text, `[{"name"`); start >= 0 {
		var rawCalls []struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		if err := dec.Decode(&rawCalls); err == nil && len(rawCalls) > 0 && rawCalls[0].Name != "" {
			args := rawCalls[0].Arguments
			if args == nil {
				args = map[string]any{}
			}
			remainder := strings.TrimSpace(text[:start])
			return dispatch.NewToolCall(rawCalls[0].Name, args), remainder, true
		}
	}

	return dispatch.ToolCall{}, "", false
}
