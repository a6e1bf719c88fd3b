package flow

import "fmt"

// RoundLimitExceededError reports that an inner run hit its round limit
// without producing a final answer. Terminal for the subtask, not for
// the task; the outer flow decides whether to replan.
type RoundLimitExceededError struct {
	SubtaskID string
	Rounds    int
}

func (e *RoundLimitExceededError) Error() string {
	return fmt.Sprintf("subtask %s exhausted its round limit (%d rounds)", e.SubtaskID, e.Rounds)
}

// TaskDecompositionError reports that a planner could not produce
// subtasks for a task.
type TaskDecompositionError struct {
	TaskID string
	Cause  error
}

func (e *TaskDecompositionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("task %s: decomposition failed: %v", e.TaskID, e.Cause)
	}
	return fmt.Sprintf("task %s: decomposition failed", e.TaskID)
}

func (e *TaskDecompositionError) Unwrap() error {
	return e.Cause
}
