package flow

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/martinemde/teamflow/agent"
	"github.com/martinemde/teamflow/dispatch"
)

func TestStaticPlannerTemplates(t *testing.T) {
	task := NewTask("air quality in Delhi")
	planner := &StaticPlanner{Templates: []string{
		"Research: %s",
		"Validate the findings for: %s",
	}}

	subtasks, err := planner.Plan(context.Background(), task, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(subtasks))
	}
	if subtasks[0].Instructions() != "Research: air quality in Delhi" {
		t.Errorf("unexpected instructions: %q", subtasks[0].Instructions())
	}
	if subtasks[0].TaskID() != task.ID() {
		t.Error("subtasks must reference their parent task")
	}

	// Replanning is a no-op for static plans.
	again, err := planner.Plan(context.Background(), task, []SubtaskResult{{Status: SubtaskFailed}})
	if err != nil || again != nil {
		t.Errorf("expected no replan, got %v, %v", again, err)
	}
}

func TestStaticPlannerDefaultsToSingleSubtask(t *testing.T) {
	task := NewTask("just do it")
	subtasks, err := (&StaticPlanner{}).Plan(context.Background(), task, nil)
	if err != nil || len(subtasks) != 1 {
		t.Fatalf("expected single subtask, got %v, %v", subtasks, err)
	}
	if subtasks[0].Instructions() != "just do it" {
		t.Errorf("unexpected instructions: %q", subtasks[0].Instructions())
	}
}

func TestSelectorPlannerGatherThenSynthesize(t *testing.T) {
	task := NewTask("Compare weather and air quality in Oslo")
	planner := NewSelectorPlanner()

	subtasks, err := planner.Plan(context.Background(), task, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subtasks) < 2 {
		t.Fatalf("expected gathering and synthesis subtasks, got %d", len(subtasks))
	}

	last := subtasks[len(subtasks)-1].Instructions()
	if !strings.Contains(last, "Synthesize") {
		t.Errorf("last subtask must synthesize, got %q", last)
	}
	for _, s := range subtasks[:len(subtasks)-1] {
		if !strings.Contains(s.Instructions(), "tool") {
			t.Errorf("gathering subtask must name its tool, got %q", s.Instructions())
		}
	}
}

func TestAgentPlannerParsesJSONArray(t *testing.T) {
	coordinator := agent.NewScriptedAgent(agent.NewCoordinatorProfile("lead"),
		textStep(`Here is the plan:
["Research current data", "Analyze the trend", "Write the summary"]`))
	planner := &AgentPlanner{Coordinator: coordinator}

	task := NewTask("trend report")
	subtasks, err := planner.Plan(context.Background(), task, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, s := range subtasks {
		got = append(got, s.Instructions())
	}
	want := []string{"Research current data", "Analyze the trend", "Write the summary"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAgentPlannerCapsSubtaskCount(t *testing.T) {
	coordinator := agent.NewScriptedAgent(agent.NewCoordinatorProfile("lead"),
		textStep(`["a", "b", "c", "d"]`))
	planner := &AgentPlanner{Coordinator: coordinator, MaxSubtasks: 2}

	subtasks, err := planner.Plan(context.Background(), NewTask("busy"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subtasks) != 2 {
		t.Errorf("expected plan capped at 2 subtasks, got %d", len(subtasks))
	}
}

func TestAgentPlannerFailure(t *testing.T) {
	coordinator := agent.NewScriptedAgent(agent.NewCoordinatorProfile("lead"),
		agent.ScriptStep{Err: &agent.AgentInvocationError{Message: "model down", Retryable: false}})
	planner := &AgentPlanner{Coordinator: coordinator}

	_, err := planner.Plan(context.Background(), NewTask("doomed"), nil)
	var decomp *TaskDecompositionError
	if !errors.As(err, &decomp) {
		t.Fatalf("expected *TaskDecompositionError, got %T", err)
	}
}

func TestParseSubtaskListNumberedFallback(t *testing.T) {
	got := parseSubtaskList(`1. Gather the data
2) Check the sources
- Write it up`)
	want := []string{"Gather the data", "Check the sources", "Write it up"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestOuterFlowRunsSubtasksInOrder(t *testing.T) {
	a := agent.NewScriptedAgent(agent.NewProfile("worker", "researcher", ""),
		textStep("FINAL ANSWER: one"),
		textStep("FINAL ANSWER: two"),
		textStep("FINAL ANSWER: three"),
	)
	planner := &StaticPlanner{Templates: []string{"first", "second", "third"}}
	outer, err := NewOuterFlow(planner, []agent.Agent{a}, dispatch.NewDispatcher(flowRegistry(nil)),
		OuterConfig{Inner: InnerConfig{Retry: quickRetry()}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := NewTask("three steps")
	outcome, err := outer.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != TaskSucceeded {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.Reason)
	}
	if task.Status() != TaskSucceeded {
		t.Errorf("task status must track the outcome, got %s", task.Status())
	}

	var answers []string
	for _, r := range outcome.Results {
		answers = append(answers, r.Answer)
	}
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(answers, want) {
		t.Errorf("expected ordered results %v, got %v", want, answers)
	}
	if outcome.Answer != "three" {
		t.Errorf("task answer must come from the last success, got %q", outcome.Answer)
	}
}

func TestOuterFlowAbandonsAfterConsecutiveFailures(t *testing.T) {
	failure := &agent.AgentInvocationError{Message: "model down", Retryable: false}
	a := agent.NewScriptedAgent(agent.NewProfile("worker", "researcher", ""),
		agent.ScriptStep{Err: failure},
		agent.ScriptStep{Err: failure},
		textStep("FINAL ANSWER: never reached"),
	)
	planner := &StaticPlanner{Templates: []string{"first", "second", "third"}}
	outer, err := NewOuterFlow(planner, []agent.Agent{a}, dispatch.NewDispatcher(flowRegistry(nil)),
		OuterConfig{MaxConsecutiveFailures: 2, Inner: InnerConfig{Retry: quickRetry()}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := NewTask("doomed")
	outcome, err := outer.Run(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != TaskFailed {
		t.Fatalf("expected failure, got %s", outcome.Status)
	}
	if task.Status() != TaskFailed {
		t.Errorf("task status must track the outcome, got %s", task.Status())
	}
	if len(outcome.Results) != 2 {
		t.Errorf("the third subtask must not run, got %d results", len(outcome.Results))
	}
	if !strings.Contains(outcome.Reason, "consecutive") {
		t.Errorf("reason must explain the abandonment, got %q", outcome.Reason)
	}
}

func TestOuterFlowFailureResetOnSuccess(t *testing.T) {
	failure := &agent.AgentInvocationError{Message: "model down", Retryable: false}
	a := agent.NewScriptedAgent(agent.NewProfile("worker", "researcher", ""),
		agent.ScriptStep{Err: failure},
		textStep("FINAL ANSWER: recovered"),
		agent.ScriptStep{Err: failure},
		textStep("FINAL ANSWER: done"),
	)
	planner := &StaticPlanner{Templates: []string{"a", "b", "c", "d"}}
	outer, err := NewOuterFlow(planner, []agent.Agent{a}, dispatch.NewDispatcher(flowRegistry(nil)),
		OuterConfig{MaxConsecutiveFailures: 2, Inner: InnerConfig{Retry: quickRetry()}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := outer.Run(context.Background(), NewTask("bumpy"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != TaskSucceeded {
		t.Fatalf("isolated failures must not abandon the task, got %s (%s)", outcome.Status, outcome.Reason)
	}
	if len(outcome.Results) != 4 {
		t.Errorf("expected all 4 subtasks to run, got %d", len(outcome.Results))
	}
}

func TestOuterFlowPlannerFailureFailsTask(t *testing.T) {
	coordinator := agent.NewScriptedAgent(agent.NewCoordinatorProfile("lead"),
		agent.ScriptStep{Err: &agent.AgentInvocationError{Message: "model down", Retryable: false}})
	planner := &AgentPlanner{Coordinator: coordinator}

	outer, err := NewOuterFlow(planner, []agent.Agent{coordinator}, dispatch.NewDispatcher(flowRegistry(nil)),
		OuterConfig{Inner: InnerConfig{Retry: quickRetry()}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := outer.Run(context.Background(), NewTask("unplannable"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != TaskFailed {
		t.Fatalf("expected failure, got %s", outcome.Status)
	}
	if !strings.Contains(outcome.Reason, "decomposition failed") {
		t.Errorf("reason must carry the planner error, got %q", outcome.Reason)
	}
}

func TestOuterFlowParallelSubtasks(t *testing.T) {
	// Stateless agent: every run ends immediately with an empty final
	// answer, so concurrent inner runs cannot interfere.
	a := agent.NewScriptedAgent(agent.NewProfile("worker", "researcher", ""))
	planner := &StaticPlanner{Templates: []string{"a", "b", "c"}}
	outer, err := NewOuterFlow(planner, []agent.Agent{a}, dispatch.NewDispatcher(flowRegistry(nil)),
		OuterConfig{Parallel: true, Inner: InnerConfig{Retry: quickRetry()}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := outer.Run(context.Background(), NewTask("fan out"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != TaskSucceeded {
		t.Fatalf("expected success, got %s (%s)", outcome.Status, outcome.Reason)
	}
	if len(outcome.Results) != 3 {
		t.Errorf("expected 3 results, got %d", len(outcome.Results))
	}
}
