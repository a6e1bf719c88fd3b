package flow

import (
	"fmt"
	"testing"

	"github.com/martinemde/teamflow/dispatch"
)

func callTurn(tool string, args map[string]any) Turn {
	call := dispatch.NewToolCall(tool, args)
	return NewAgentTurn("researcher", "", &call)
}

func TestDetectRepeatIdenticalCalls(t *testing.T) {
	var history []Turn
	for i := 0; i < 4; i++ {
		history = append(history, callTurn("web_search", map[string]any{"query": "same"}))
	}

	if !DetectRepeat(history, 4) {
		t.Error("four identical calls must be detected")
	}
}

func TestDetectRepeatAlternatingPair(t *testing.T) {
	var history []Turn
	for i := 0; i < 3; i++ {
		history = append(history, callTurn("get_weather", map[string]any{"location": "Oslo"}))
		history = append(history, callTurn("web_search", map[string]any{"query": "weather"}))
	}

	if !DetectRepeat(history, 6) {
		t.Error("alternating pair pattern must be detected")
	}
}

func TestDetectRepeatDistinctArguments(t *testing.T) {
	var history []Turn
	for i := 0; i < 6; i++ {
		history = append(history, callTurn("web_search", map[string]any{
			"query": fmt.Sprintf("page %d", i),
		}))
	}

	if DetectRepeat(history, 6) {
		t.Error("same tool with distinct arguments is progress, not a loop")
	}
}

func TestDetectRepeatTooFewCalls(t *testing.T) {
	history := []Turn{
		callTurn("web_search", map[string]any{"query": "same"}),
		callTurn("web_search", map[string]any{"query": "same"}),
	}

	if DetectRepeat(history, 6) {
		t.Error("window not yet full must not trigger detection")
	}
}

func TestDetectRepeatIgnoresNonToolTurns(t *testing.T) {
	var history []Turn
	for i := 0; i < 4; i++ {
		history = append(history, callTurn("web_search", map[string]any{"query": "same"}))
		history = append(history, NewToolTurn(&dispatch.ToolResult{Tool: "web_search", Content: "ok"}))
		history = append(history, NewAgentTurn("analyst", "hmm", nil))
	}

	if !DetectRepeat(history, 4) {
		t.Error("interleaved non-call turns must not hide the loop")
	}
}
