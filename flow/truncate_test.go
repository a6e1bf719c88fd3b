package flow

import (
	"strings"
	"testing"
)

func TestTruncateOutputUnderLimit(t *testing.T) {
	out := TruncateOutput("short", 100, TruncateHeadTail)
	if out != "short" {
		t.Errorf("output under the limit must pass through, got %q", out)
	}
}

func TestTruncateOutputHeadTail(t *testing.T) {
	input := strings.Repeat("a", 500) + strings.Repeat("z", 500)
	out := TruncateOutput(input, 100, TruncateHeadTail)

	if !strings.HasPrefix(out, strings.Repeat("a", 50)) {
		t.Error("head must be preserved")
	}
	if !strings.HasSuffix(out, strings.Repeat("z", 50)) {
		t.Error("tail must be preserved")
	}
	if !strings.Contains(out, "900 characters were removed") {
		t.Errorf("marker must report removed count, got %q", out)
	}
}

func TestTruncateOutputTail(t *testing.T) {
	input := strings.Repeat("a", 500) + strings.Repeat("z", 100)
	out := TruncateOutput(input, 100, TruncateTail)

	if !strings.HasSuffix(out, strings.Repeat("z", 100)) {
		t.Error("tail mode must keep the end of the output")
	}
	if !strings.Contains(out, "First 500 characters were removed") {
		t.Errorf("marker must report removed count, got %q", out)
	}
}

func TestTruncateLines(t *testing.T) {
	input := strings.TrimSuffix(strings.Repeat("line\n", 100), "\n")
	out := TruncateLines(input, 10)

	if !strings.Contains(out, "[... 90 lines omitted ...]") {
		t.Errorf("expected omission marker, got %q", out)
	}

	out = TruncateLines("a\nb", 10)
	if out != "a\nb" {
		t.Errorf("short input must pass through, got %q", out)
	}
}

func TestTruncateToolOutputPerToolLimit(t *testing.T) {
	input := strings.Repeat("x", 200)
	out := TruncateToolOutput(input, "web_search", map[string]int{"web_search": 50}, nil)
	if len(out) >= 200 {
		t.Error("per-tool character limit must apply")
	}

	// Tools without an override use the default limit.
	out = TruncateToolOutput(input, "other_tool", map[string]int{"web_search": 50}, nil)
	if out != input {
		t.Error("default limit must not truncate small output")
	}
}

func TestTruncateToolOutputZeroLimitDisables(t *testing.T) {
	input := strings.Repeat("x", 100000)
	out := TruncateToolOutput(input, "dump", map[string]int{"dump": 0}, nil)
	if out != input {
		t.Error("zero limit means unlimited")
	}
}
