package dispatch

import (
	"context"
	"time"
)

// Caller identifies who is requesting a dispatch and which tools that
// identity may use.
type Caller interface {
	Name() string
	Allowed(tool string) bool
}

// ApprovalGate blocks a side-effecting dispatch until an operator
// decision is recorded. A nil return means the call was approved; the
// gate's own error types describe denial, timeout, and cancellation.
type ApprovalGate interface {
	Await(ctx context.Context, call ToolCall) error
}

// Dispatcher resolves tool calls against a Registry and invokes the
// bound capability under authorization, schema validation, and (for
// side-effecting tools) human approval.
type Dispatcher struct {
	registry      *Registry
	gate          ApprovalGate
	invokeTimeout time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithGate routes side-effecting calls through the given approval gate.
// A dispatcher without a gate refuses side-effecting calls outright;
// unattended runs use a gate with an auto-approving operator channel.
func WithGate(gate ApprovalGate) DispatcherOption {
	return func(d *Dispatcher) {
		d.gate = gate
	}
}

// WithInvokeTimeout bounds a single capability invocation. Zero means no
// dispatcher-imposed timeout.
func WithInvokeTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout < 0 {
			timeout = 0
		}
		d.invokeTimeout = timeout
	}
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Registry returns the dispatcher's registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch resolves and invokes a single tool call on behalf of caller.
//
// The checks run in fixed order: registration, authorization, argument
// validation, approval (side-effecting tools only), invocation. The
// capability runs at most once; it never runs if any earlier step fails.
// Invocation failures are wrapped as *ToolExecutionError and never
// retried here; retry policy belongs to the calling flow.
func (d *Dispatcher) Dispatch(ctx context.Context, call ToolCall, caller Caller) (*ToolResult, error) {
	tool := d.registry.Get(call.Name)
	if tool == nil {
		return nil, newUnknownToolError(call.Name)
	}

	if !caller.Allowed(call.Name) {
		return nil, newUnauthorizedToolError(call.Name, caller.Name())
	}

	if err := tool.Definition.Schema.Validate(call.Name, call.Arguments); err != nil {
		return nil, err
	}

	if tool.Definition.SideEffecting {
		if d.gate == nil {
			return nil, newApprovalRequiredError(call.Name)
		}
		if err := d.gate.Await(ctx, call); err != nil {
			return nil, err
		}
	}

	invokeCtx := ctx
	if d.invokeTimeout > 0 {
		var cancel context.CancelFunc
		invokeCtx, cancel = context.WithTimeout(ctx, d.invokeTimeout)
		defer cancel()
	}

	start := time.Now()
	content, err := tool.invoke(invokeCtx, call.Arguments)
	elapsed := time.Since(start)
	if err != nil {
		return nil, newToolExecutionError(call.Name, err)
	}

	return &ToolResult{
		CallID:     call.ID,
		Tool:       call.Name,
		Content:    content,
		Duration:   elapsed,
		DurationMs: elapsed.Milliseconds(),
	}, nil
}
