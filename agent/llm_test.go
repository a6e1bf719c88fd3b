package agent

import (
	"strings"
	"testing"

	"github.com/martinemde/teamflow/dispatch"
)

func TestParseReplyToolCall(t *testing.T) {
	text := `I will look this up.
{"tool": "web_search", "arguments": {"query": "air quality Delhi"}}`

	p := ParseReply(text)
	if p.ToolCall == nil {
		t.Fatal("expected a tool call")
	}
	if p.ToolCall.Name != "web_search" {
		t.Errorf("expected web_search, got %s", p.ToolCall.Name)
	}
	if p.ToolCall.Arguments["query"] != "air quality Delhi" {
		t.Errorf("unexpected arguments: %v", p.ToolCall.Arguments)
	}
	if p.Text != "I will look this up." {
		t.Errorf("expected preamble preserved, got %q", p.Text)
	}
	if p.Final {
		t.Error("tool call must not be final")
	}
}

func TestParseReplyToolCallWithoutArguments(t *testing.T) {
	p := ParseReply(`{"tool": "get_time"}`)
	if p.ToolCall == nil {
		t.Fatal("expected a tool call")
	}
	if p.ToolCall.Arguments == nil {
		t.Error("arguments must default to an empty map")
	}
}

func TestParseReplyProviderArrayForm(t *testing.T) {
	text := `[{"name": "get_weather", "arguments": {"location": "Oslo"}}]`

	p := ParseReply(text)
	if p.ToolCall == nil {
		t.Fatal("expected a tool call")
	}
	if p.ToolCall.Name != "get_weather" {
		t.Errorf("expected get_weather, got %s", p.ToolCall.Name)
	}
	if p.ToolCall.Arguments["location"] != "Oslo" {
		t.Errorf("unexpected arguments: %v", p.ToolCall.Arguments)
	}
}

func TestParseReplyFinalAnswer(t *testing.T) {
	p := ParseReply("The data supports it.\nFINAL ANSWER: yes, with high confidence")
	if !p.Final {
		t.Fatal("expected final proposal")
	}
	if p.Text != "yes, with high confidence" {
		t.Errorf("unexpected answer: %q", p.Text)
	}
}

func TestParseReplyToolCallWinsOverSentinel(t *testing.T) {
	text := `FINAL ANSWER: almost, but first
{"tool": "web_search", "arguments": {"query": "check"}}`

	p := ParseReply(text)
	if p.ToolCall == nil {
		t.Fatal("expected the tool call to win over the sentinel")
	}
	if p.Final {
		t.Error("proposal with a tool call must not be final")
	}
}

func TestParseReplyPlainUtterance(t *testing.T) {
	p := ParseReply("  I need more information about the source.  ")
	if p.ToolCall != nil || p.Final {
		t.Fatalf("expected plain utterance, got %+v", p)
	}
	if p.Text != "I need more information about the source." {
		t.Errorf("expected trimmed text, got %q", p.Text)
	}
}

func TestParseReplyMalformedJSONFallsThrough(t *testing.T) {
	p := ParseReply(`{"tool": "web_search", "arguments": {"query": `)
	if p.ToolCall != nil {
		t.Error("malformed tool JSON must not produce a call")
	}
}

func TestSystemPromptCarriesProtocol(t *testing.T) {
	profile := NewProfile("researcher", RoleResearcher, "You research things.", "web_search")
	tools := []dispatch.ToolDefinition{{
		Name:        "web_search",
		Description: "Search the public web",
		Schema:      dispatch.Schema{"query": {Type: dispatch.ArgString, Required: true}},
	}}
	a := NewLLMAgent(profile, nil, tools)

	prompt := a.systemPrompt()
	for _, want := range []string{"You research things.", `{"tool"`, "web_search", FinalAnswerMarker} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}
