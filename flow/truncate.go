package flow

import (
	"fmt"
	"strings"
)

// TruncationMode specifies how oversized tool output is cut down before
// it enters the conversation.
type TruncationMode string

const (
	TruncateHeadTail TruncationMode = "head_tail"
	TruncateTail     TruncationMode = "tail"
)

// DefaultOutputCharLimit bounds tool output entering the conversation
// when no per-tool limit is configured.
const DefaultOutputCharLimit = 30000

// TruncateOutput applies character-based truncation to output.
func TruncateOutput(output string, maxChars int, mode TruncationMode) string {
	if maxChars <= 0 || len(output) <= maxChars {
		return output
	}

	removed := len(output) - maxChars
	switch mode {
	case TruncateTail:
		return fmt.Sprintf("[Tool output truncated. First %d characters were removed.]\n\n", removed) +
			output[len(output)-maxChars:]
	default:
		half := maxChars / 2
		return output[:half] +
			fmt.Sprintf("\n\n[Tool output truncated. %d characters were removed from the middle. "+
				"Re-run the tool with more targeted parameters if you need the full output.]\n\n", removed) +
			output[len(output)-half:]
	}
}

// TruncateLines applies line-based truncation using a head/tail split.
func TruncateLines(output string, maxLines int) string {
	if maxLines <= 0 {
		return output
	}
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}

	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount

	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateToolOutput applies the full truncation pipeline for a tool:
// character-based first, then line-based for readability. Per-tool
// limits override the defaults; a zero limit means unlimited.
func TruncateToolOutput(output, toolName string, charLimits, lineLimits map[string]int) string {
	maxChars := DefaultOutputCharLimit
	if ml, ok := charLimits[toolName]; ok {
		maxChars = ml
	}
	result := TruncateOutput(output, maxChars, TruncateHeadTail)

	if ml, ok := lineLimits[toolName]; ok {
		result = TruncateLines(result, ml)
	}
	return result
}
