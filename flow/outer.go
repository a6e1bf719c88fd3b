package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/martinemde/teamflow/agent"
	"github.com/martinemde/teamflow/dispatch"
)

// DefaultMaxPlanRounds bounds how many times a task may be planned,
// counting the initial decomposition.
const DefaultMaxPlanRounds = 2

// DefaultMaxConsecutiveFailures is how many subtasks may fail in a row
// before the task is abandoned.
const DefaultMaxConsecutiveFailures = 2

// Planner decomposes a task into subtasks. After the first round it is
// called again with the results so far; returning no subtasks ends the
// planning loop.
type Planner interface {
	Plan(ctx context.Context, task *Task, prior []SubtaskResult) ([]*Subtask, error)
}

// StaticPlanner emits a fixed instruction template per entry, with the
// task description substituted for %s. It plans once and never replans.
type StaticPlanner struct {
	Templates []string
}

// Plan implements Planner.
func (p *StaticPlanner) Plan(ctx context.Context, task *Task, prior []SubtaskResult) ([]*Subtask, error) {
	if len(prior) > 0 {
		return nil, nil
	}
	if len(p.Templates) == 0 {
		return []*Subtask{NewSubtask(task.ID(), task.Description())}, nil
	}
	subtasks := make([]*Subtask, 0, len(p.Templates))
	for _, tmpl := range p.Templates {
		instructions := tmpl
		if strings.Contains(tmpl, "%s") {
			instructions = fmt.Sprintf(tmpl, task.Description())
		}
		subtasks = append(subtasks, NewSubtask(task.ID(), instructions))
	}
	return subtasks, nil
}

// SelectorPlanner derives subtasks from the tools a Selector proposes
// for the task: one data-gathering subtask per tool in execution order,
// then a synthesis subtask over the gathered results. It plans once.
type SelectorPlanner struct {
	Selector *dispatch.Selector
}

// NewSelectorPlanner creates a SelectorPlanner with the default
// selector patterns.
func NewSelectorPlanner() *SelectorPlanner {
	return &SelectorPlanner{Selector: dispatch.NewSelector()}
}

// Plan implements Planner.
func (p *SelectorPlanner) Plan(ctx context.Context, task *Task, prior []SubtaskResult) ([]*Subtask, error) {
	if len(prior) > 0 {
		return nil, nil
	}
	analysis := p.Selector.Analyze(task.Description())
	ordered := p.Selector.ExecutionOrder(analysis.Tools)

	var subtasks []*Subtask
	for _, tool := range ordered {
		if tool == "data_analysis" {
			continue
		}
		subtasks = append(subtasks, NewSubtask(task.ID(), fmt.Sprintf(
			"Gather information for this objective using the %s tool. Objective: %s",
			tool, task.Description())))
	}
	subtasks = append(subtasks, NewSubtask(task.ID(), fmt.Sprintf(
		"Synthesize the findings gathered so far into a direct answer. Objective: %s",
		task.Description())))
	return subtasks, nil
}

// AgentPlanner delegates decomposition to a coordinator agent. The agent
// is asked for a JSON array of subtask instructions; a numbered list is
// accepted as a fallback.
type AgentPlanner struct {
	Coordinator agent.Agent
	MaxSubtasks int
}

// Plan implements Planner.
func (p *AgentPlanner) Plan(ctx context.Context, task *Task, prior []SubtaskResult) ([]*Subtask, error) {
	if len(prior) > 0 {
		return nil, nil
	}
	limit := p.MaxSubtasks
	if limit <= 0 {
		limit = 5
	}

	prompt := fmt.Sprintf(
		"Break the following objective into at most %d ordered subtasks. "+
			"Reply with a JSON array of instruction strings and nothing else.\n\nObjective: %s",
		limit, task.Description())

	proposal, err := p.Coordinator.Propose(ctx, []agent.Message{{
		Role:    agent.RoleInstruction,
		Content: prompt,
	}})
	if err != nil {
		return nil, &TaskDecompositionError{TaskID: task.ID(), Cause: err}
	}

	instructions := parseSubtaskList(proposal.Text)
	if len(instructions) == 0 {
		return nil, &TaskDecompositionError{
			TaskID: task.ID(),
			Cause:  fmt.Errorf("coordinator reply contained no subtasks: %q", proposal.Text),
		}
	}
	if len(instructions) > limit {
		instructions = instructions[:limit]
	}

	subtasks := make([]*Subtask, 0, len(instructions))
	for _, ins := range instructions {
		subtasks = append(subtasks, NewSubtask(task.ID(), ins))
	}
	return subtasks, nil
}

// parseSubtaskList extracts instruction strings from a planner reply.
// JSON arrays are preferred; numbered or dashed lists are the fallback.
func parseSubtaskList(text string) []string {
	if start := strings.Index(text, "["); start >= 0 {
		if end := strings.LastIndex(text, "]"); end > start {
			var items []string
			if err := json.Unmarshal([]byte(text[start:end+1]), &items); err == nil {
				var out []string
				for _, item := range items {
					if s := strings.TrimSpace(item); s != "" {
						out = append(out, s)
					}
				}
				if len(out) > 0 {
					return out
				}
			}
		}
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)- \t")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// OuterConfig tunes an outer run.
type OuterConfig struct {
	// MaxPlanRounds bounds planning rounds, counting the first. Zero
	// selects DefaultMaxPlanRounds.
	MaxPlanRounds int

	// MaxConsecutiveFailures is how many subtasks may fail back to back
	// before the task is abandoned. Zero selects the default; it only
	// applies to sequential execution.
	MaxConsecutiveFailures int

	// Parallel runs each planning round's subtasks concurrently. Results
	// keep plan order. Use only when subtasks are independent.
	Parallel bool

	// Inner configures the inner runs.
	Inner InnerConfig

	// Emitter receives progress events. Nil disables emission.
	Emitter *EventEmitter
}

func (c OuterConfig) maxPlanRounds() int {
	if c.MaxPlanRounds <= 0 {
		return DefaultMaxPlanRounds
	}
	return c.MaxPlanRounds
}

func (c OuterConfig) maxConsecutiveFailures() int {
	if c.MaxConsecutiveFailures <= 0 {
		return DefaultMaxConsecutiveFailures
	}
	return c.MaxConsecutiveFailures
}

// OuterFlow owns one Task: it plans subtasks, drives an inner run per
// subtask, and aggregates the results into a TaskOutcome. An OuterFlow
// is single-use per Run; create one per task.
type OuterFlow struct {
	planner Planner
	inner   *InnerFlow
	cfg     OuterConfig
}

// NewOuterFlow creates an OuterFlow.
func NewOuterFlow(planner Planner, agents []agent.Agent, dispatcher *dispatch.Dispatcher, cfg OuterConfig) (*OuterFlow, error) {
	if planner == nil {
		return nil, errors.New("outer flow requires a planner")
	}
	innerCfg := cfg.Inner
	if innerCfg.Emitter == nil {
		innerCfg.Emitter = cfg.Emitter
	}
	inner, err := NewInnerFlow(agents, dispatcher, innerCfg)
	if err != nil {
		return nil, err
	}
	return &OuterFlow{planner: planner, inner: inner, cfg: cfg}, nil
}

// Run executes the task to completion. A non-nil error is returned only
// for cancellation; planning and subtask failures are expressed in the
// outcome.
func (f *OuterFlow) Run(ctx context.Context, task *Task) (*TaskOutcome, error) {
	task.setStatus(TaskRunning)
	f.emit(EventTaskStart, map[string]any{
		"task_id":     task.ID(),
		"description": task.Description(),
	})

	var all []SubtaskResult
	consecutiveFailures := 0
	abandoned := false
	reason := ""

	for round := 0; round < f.cfg.maxPlanRounds() && !abandoned; round++ {
		subtasks, err := f.planner.Plan(ctx, task, all)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var decomp *TaskDecompositionError
			if !errors.As(err, &decomp) {
				err = &TaskDecompositionError{TaskID: task.ID(), Cause: err}
			}
			return f.finish(task, &TaskOutcome{
				TaskID:  task.ID(),
				Status:  TaskFailed,
				Reason:  err.Error(),
				Results: all,
			}), nil
		}
		if len(subtasks) == 0 {
			break
		}

		var results []SubtaskResult
		if f.cfg.Parallel {
			results, err = f.runParallel(ctx, subtasks)
		} else {
			results, err = f.runSequential(ctx, subtasks, &consecutiveFailures)
		}
		all = append(all, results...)
		if err != nil {
			return nil, err
		}

		if !f.cfg.Parallel && consecutiveFailures >= f.cfg.maxConsecutiveFailures() {
			abandoned = true
			reason = fmt.Sprintf("abandoned after %d consecutive subtask failures", consecutiveFailures)
		}
	}

	return f.finish(task, f.aggregate(task, all, abandoned, reason)), nil
}

// runSequential runs subtasks in order, stopping early once the
// consecutive failure budget is spent.
func (f *OuterFlow) runSequential(ctx context.Context, subtasks []*Subtask, consecutiveFailures *int) ([]SubtaskResult, error) {
	var results []SubtaskResult
	for _, subtask := range subtasks {
		result, err := f.inner.Run(ctx, subtask)
		if err != nil {
			return results, err
		}
		results = append(results, *result)

		if result.Status == SubtaskFailed {
			*consecutiveFailures++
			if *consecutiveFailures >= f.cfg.maxConsecutiveFailures() {
				return results, nil
			}
		} else {
			*consecutiveFailures = 0
		}
	}
	return results, nil
}

// runParallel runs one round's subtasks concurrently. Results keep plan
// order; the first cancellation aborts the group.
func (f *OuterFlow) runParallel(ctx context.Context, subtasks []*Subtask) ([]SubtaskResult, error) {
	results := make([]*SubtaskResult, len(subtasks))
	g, gctx := errgroup.WithContext(ctx)
	for i, subtask := range subtasks {
		g.Go(func() error {
			result, err := f.inner.Run(gctx, subtask)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]SubtaskResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// aggregate folds subtask results into the task outcome. The answer is
// the last successful subtask's answer; synthesis runs last by
// convention, so it wins when present.
func (f *OuterFlow) aggregate(task *Task, results []SubtaskResult, abandoned bool, reason string) *TaskOutcome {
	outcome := &TaskOutcome{
		TaskID:  task.ID(),
		Results: results,
		Reason:  reason,
	}

	succeeded := 0
	for _, r := range results {
		if r.Status == SubtaskSucceeded {
			succeeded++
			outcome.Answer = r.Answer
		}
	}

	switch {
	case abandoned:
		outcome.Status = TaskFailed
	case succeeded == 0:
		outcome.Status = TaskFailed
		if outcome.Reason == "" {
			outcome.Reason = "no subtask produced an answer"
		}
		for i := len(results) - 1; i >= 0; i-- {
			if results[i].Status == SubtaskPartial {
				outcome.Answer = results[i].Answer
				break
			}
		}
	default:
		outcome.Status = TaskSucceeded
	}
	return outcome
}

func (f *OuterFlow) finish(task *Task, outcome *TaskOutcome) *TaskOutcome {
	task.setStatus(outcome.Status)
	f.emit(EventTaskEnd, map[string]any{
		"task_id": task.ID(),
		"status":  string(outcome.Status),
		"reason":  outcome.Reason,
	})
	return outcome
}

func (f *OuterFlow) emit(kind EventKind, data map[string]any) {
	f.cfg.Emitter.Emit(kind, data)
}
