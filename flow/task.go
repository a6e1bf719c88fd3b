package flow

import (
	"sync"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Task is the root objective. It is created by the caller and mutated
// only by the outer flow controller that runs it.
type Task struct {
	id          string
	description string

	mu     sync.Mutex
	status TaskStatus
}

// NewTask creates a pending Task.
func NewTask(description string) *Task {
	return &Task{
		id:          "task_" + uuid.New().String()[:8],
		description: description,
		status:      TaskPending,
	}
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Description returns the task objective.
func (t *Task) Description() string { return t.description }

// Status returns the task's current state.
func (t *Task) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Task) setStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// SubtaskStatus is the terminal state of a Subtask.
type SubtaskStatus string

const (
	SubtaskSucceeded SubtaskStatus = "succeeded"
	SubtaskFailed    SubtaskStatus = "failed"
	SubtaskPartial   SubtaskStatus = "partial"
)

// SubtaskResult is the outcome of one inner run.
type SubtaskResult struct {
	SubtaskID string        `json:"subtask_id"`
	Status    SubtaskStatus `json:"status"`
	Answer    string        `json:"answer,omitempty"`
	Rounds    int           `json:"rounds"`
	Err       error         `json:"-"`
}

// Subtask is one unit of work delegated to an inner run. Instructions
// are immutable; the result is set at most once.
type Subtask struct {
	id           string
	taskID       string
	instructions string

	mu     sync.Mutex
	result *SubtaskResult
}

// NewSubtask creates a Subtask for the given parent task.
func NewSubtask(taskID, instructions string) *Subtask {
	return &Subtask{
		id:           "sub_" + uuid.New().String()[:8],
		taskID:       taskID,
		instructions: instructions,
	}
}

// ID returns the subtask identifier.
func (s *Subtask) ID() string { return s.id }

// TaskID returns the parent task identifier.
func (s *Subtask) TaskID() string { return s.taskID }

// Instructions returns the subtask instructions.
func (s *Subtask) Instructions() string { return s.instructions }

// Result returns the stored result, or nil while the subtask runs.
func (s *Subtask) Result() *SubtaskResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// setResult stores the result. Only the first call takes effect.
func (s *Subtask) setResult(result *SubtaskResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result != nil {
		return false
	}
	s.result = result
	return true
}

// TaskOutcome is the aggregate result of an outer run.
type TaskOutcome struct {
	TaskID  string          `json:"task_id"`
	Status  TaskStatus      `json:"status"`
	Answer  string          `json:"answer,omitempty"`
	Reason  string          `json:"reason,omitempty"`
	Results []SubtaskResult `json:"results,omitempty"`
}
