package flow

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/martinemde/teamflow/dispatch"
)

// callSignature computes a deterministic signature for a tool call
// (name + hash of arguments).
func callSignature(call *dispatch.ToolCall) string {
	raw, err := json.Marshal(call.Arguments)
	if err != nil {
		raw = []byte(fmt.Sprint(call.Arguments))
	}
	h := sha256.Sum256(raw)
	return fmt.Sprintf("%s:%x", call.Name, h[:8])
}

// recentCallSignatures extracts signatures from the most recent tool
// calls in the history, in chronological order.
func recentCallSignatures(history []Turn, count int) []string {
	var sigs []string
	for i := len(history) - 1; i >= 0 && len(sigs) < count; i-- {
		turn := history[i]
		if turn.Kind == TurnAgent && turn.ToolCall != nil {
			sigs = append(sigs, callSignature(turn.ToolCall))
		}
	}
	for i, j := 0, len(sigs)-1; i < j; i, j = i+1, j-1 {
		sigs[i], sigs[j] = sigs[j], sigs[i]
	}
	return sigs
}

// DetectRepeat reports whether the last windowSize tool calls follow a
// repeating pattern of length 1, 2, or 3.
func DetectRepeat(history []Turn, windowSize int) bool {
	sigs := recentCallSignatures(history, windowSize)
	if len(sigs) < windowSize {
		return false
	}

	for patternLen := 1; patternLen <= 3; patternLen++ {
		if windowSize%patternLen != 0 {
			continue
		}
		pattern := sigs[:patternLen]
		allMatch := true
		for i := patternLen; i < windowSize; i += patternLen {
			for j := 0; j < patternLen; j++ {
				if sigs[i+j] != pattern[j] {
					allMatch = false
					break
				}
			}
			if !allMatch {
				break
			}
		}
		if allMatch {
			return true
		}
	}

	return false
}
