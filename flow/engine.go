package flow

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/martinemde/teamflow/agent"
	"github.com/martinemde/teamflow/dispatch"
)

// Engine runs independent tasks concurrently. Tasks share only the
// read-only tool registry and agent profiles; each gets its own
// OuterFlow and conversation state.
type Engine struct {
	planner    Planner
	agents     []agent.Agent
	dispatcher *dispatch.Dispatcher
	cfg        OuterConfig

	// MaxConcurrent bounds how many tasks run at once. Zero means
	// unbounded.
	MaxConcurrent int
}

// NewEngine creates an Engine. The planner, agents, and dispatcher are
// shared templates for the per-task outer flows.
func NewEngine(planner Planner, agents []agent.Agent, dispatcher *dispatch.Dispatcher, cfg OuterConfig) (*Engine, error) {
	if planner == nil {
		return nil, errors.New("engine requires a planner")
	}
	if len(agents) == 0 {
		return nil, errors.New("engine requires at least one agent")
	}
	if dispatcher == nil {
		return nil, errors.New("engine requires a dispatcher")
	}
	return &Engine{
		planner:    planner,
		agents:     agents,
		dispatcher: dispatcher,
		cfg:        cfg,
	}, nil
}

// Run executes a single task through a fresh outer flow.
func (e *Engine) Run(ctx context.Context, task *Task) (*TaskOutcome, error) {
	outer, err := NewOuterFlow(e.planner, e.agents, e.dispatcher, e.cfg)
	if err != nil {
		return nil, err
	}
	return outer.Run(ctx, task)
}

// RunAll executes the given tasks concurrently and returns their
// outcomes keyed by task ID. One task's failure never aborts the
// others; only cancellation stops the batch early.
func (e *Engine) RunAll(ctx context.Context, tasks []*Task) (map[string]*TaskOutcome, error) {
	outcomes := make(map[string]*TaskOutcome, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if e.MaxConcurrent > 0 {
		g.SetLimit(e.MaxConcurrent)
	}

	for _, task := range tasks {
		g.Go(func() error {
			outcome, err := e.Run(gctx, task)
			if err != nil {
				return err
			}
			mu.Lock()
			outcomes[task.ID()] = outcome
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
