package approval

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/martinemde/teamflow/dispatch"
)

// Status is the lifecycle state of an ApprovalRequest.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

// Decision is one operator verdict on a pending request.
type Decision struct {
	Approved bool
	Note     string
}

// Request wraps a ToolCall awaiting a human decision. It resolves at
// most once; later decisions are ignored and counted as no-ops.
type Request struct {
	ID        string
	Call      dispatch.ToolCall
	CreatedAt time.Time

	mu        sync.Mutex
	status    Status
	note      string
	decidedAt time.Time
	ignored   int
	done      chan struct{}
}

func newRequest(call dispatch.ToolCall) *Request {
	return &Request{
		ID:        "appr_" + uuid.New().String()[:8],
		Call:      call,
		CreatedAt: time.Now(),
		status:    StatusPending,
		done:      make(chan struct{}),
	}
}

// Status returns the request's current state.
func (r *Request) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Note returns the operator's note, if any decision carried one.
func (r *Request) Note() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.note
}

// DecidedAt returns when the request left the pending state.
func (r *Request) DecidedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decidedAt
}

// IgnoredDecisions returns how many late or duplicate decisions were
// dropped after the request resolved.
func (r *Request) IgnoredDecisions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ignored
}

// Approve records an approval. It returns false if the request had
// already resolved, in which case the decision is a no-op.
func (r *Request) Approve(note string) bool {
	return r.resolve(StatusApproved, note)
}

// Deny records a denial. It returns false if the request had already
// resolved, in which case the decision is a no-op.
func (r *Request) Deny(note string) bool {
	return r.resolve(StatusDenied, note)
}

// Decide applies a Decision, mapping it to Approve or Deny.
func (r *Request) Decide(d Decision) bool {
	if d.Approved {
		return r.Approve(d.Note)
	}
	return r.Deny(d.Note)
}

// expire moves a still-pending request to expired. Used by the gate on
// timeout or cancellation.
func (r *Request) expire() bool {
	return r.resolve(StatusExpired, "")
}

// resolve performs the single allowed transition out of pending.
func (r *Request) resolve(status Status, note string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusPending {
		r.ignored++
		return false
	}
	r.status = status
	r.note = note
	r.decidedAt = time.Now()
	close(r.done)
	return true
}

// Done returns a channel closed when the request resolves.
func (r *Request) Done() <-chan struct{} {
	return r.done
}
