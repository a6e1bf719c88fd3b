package approval

import (
	"context"
	"sync"
	"time"

	"github.com/martinemde/teamflow/dispatch"
)

// defaultTimeout bounds the approval wait when no timeout is configured.
const defaultTimeout = 5 * time.Minute

// Approver is the operator channel. Notify must not block: delivery is
// asynchronous, and the operator responds by calling Approve or Deny on
// the request (directly or via Gate.Resolve).
type Approver interface {
	Notify(req *Request)
}

// LogEntry records one resolved request for the gate's decision log.
type LogEntry struct {
	RequestID string
	Tool      string
	Caller    string
	Status    Status
	Note      string
	Waited    time.Duration
}

// Gate intercepts side-effecting dispatches and blocks each issuing flow
// until an operator decision, a timeout, or cancellation. It implements
// dispatch.ApprovalGate.
type Gate struct {
	approver Approver
	timeout  time.Duration

	mu      sync.Mutex
	pending map[string]*Request
	log     []LogEntry
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithTimeout sets how long a request may stay pending before expiring.
func WithTimeout(timeout time.Duration) GateOption {
	return func(g *Gate) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// NewGate creates a Gate that surfaces requests to the given approver.
func NewGate(approver Approver, opts ...GateOption) *Gate {
	g := &Gate{
		approver: approver,
		timeout:  defaultTimeout,
		pending:  make(map[string]*Request),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Request creates an ApprovalRequest for the call and notifies the
// operator channel without waiting for the decision.
func (g *Gate) Request(call dispatch.ToolCall) *Request {
	req := newRequest(call)
	g.mu.Lock()
	g.pending[req.ID] = req
	g.mu.Unlock()

	g.approver.Notify(req)
	return req
}

// Await implements dispatch.ApprovalGate. It surfaces the call to the
// operator and blocks until one of: approval (nil), denial
// (*ApprovalDeniedError), timeout (*ApprovalTimeoutError), or context
// cancellation (*ApprovalTimeoutError with Cancelled set). On timeout or
// cancellation the request transitions to expired rather than dangling.
//
// No gate lock is held while waiting; only the issuing flow blocks.
func (g *Gate) Await(ctx context.Context, call dispatch.ToolCall) error {
	req := g.Request(call)

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	var result error
	select {
	case <-req.Done():
		result = decisionError(req, call)
	case <-timer.C:
		// A decision that won the race against the timer is honored.
		if req.expire() {
			result = &ApprovalTimeoutError{RequestID: req.ID, Tool: call.Name}
		} else {
			result = decisionError(req, call)
		}
	case <-ctx.Done():
		if req.expire() {
			result = &ApprovalTimeoutError{RequestID: req.ID, Tool: call.Name, Cancelled: true, Cause: ctx.Err()}
		} else {
			result = decisionError(req, call)
		}
	}

	g.finish(req)
	return result
}

// decisionError maps a resolved request's state to Await's return value.
func decisionError(req *Request, call dispatch.ToolCall) error {
	switch req.Status() {
	case StatusApproved:
		return nil
	case StatusDenied:
		return &ApprovalDeniedError{RequestID: req.ID, Tool: call.Name, Note: req.Note()}
	default:
		return &ApprovalTimeoutError{RequestID: req.ID, Tool: call.Name}
	}
}

// finish moves a resolved request from the pending set to the log.
func (g *Gate) finish(req *Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, req.ID)
	g.log = append(g.log, LogEntry{
		RequestID: req.ID,
		Tool:      req.Call.Name,
		Caller:    req.Call.Caller,
		Status:    req.Status(),
		Note:      req.Note(),
		Waited:    req.DecidedAt().Sub(req.CreatedAt),
	})
}

// Resolve applies a decision to a pending request by ID. It returns
// false when the ID is unknown or the request already resolved; a late
// decision is honored as a no-op.
func (g *Gate) Resolve(requestID string, d Decision) bool {
	g.mu.Lock()
	req, ok := g.pending[requestID]
	g.mu.Unlock()
	if !ok {
		return false
	}
	return req.Decide(d)
}

// Pending returns the currently unresolved requests.
func (g *Gate) Pending() []*Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	reqs := make([]*Request, 0, len(g.pending))
	for _, req := range g.pending {
		reqs = append(reqs, req)
	}
	return reqs
}

// Log returns a copy of the decision log.
func (g *Gate) Log() []LogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	entries := make([]LogEntry, len(g.log))
	copy(entries, g.log)
	return entries
}

// Summary returns resolved-request counts by outcome.
func (g *Gate) Summary() map[Status]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	summary := make(map[Status]int)
	for _, entry := range g.log {
		summary[entry.Status]++
	}
	return summary
}
