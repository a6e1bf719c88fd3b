// Package approval implements the human-in-the-loop gate.
//
// When the dispatcher routes a side-effecting tool call here, the Gate
// creates an ApprovalRequest, surfaces it to an operator channel
// (Approver), and suspends the calling flow until the operator approves,
// the operator denies, the configured timeout elapses, or the flow's
// context is cancelled. A request transitions out of pending exactly
// once; late or duplicate decisions are no-ops and are counted as such.
//
// The suspension blocks only the flow that issued the call. The Gate
// holds no lock while waiting, so concurrent flows and the shared tool
// registry are unaffected by a pending request.
package approval
