// Package flow implements the two-tier conversation controllers.
//
// An InnerFlow runs one bounded multi-agent conversation for a single
// subtask: agents speak in round-robin order, tool calls are routed
// through the dispatcher, and dispatch failures are folded back into the
// conversation as context rather than aborting the run. The round limit
// is the flow's sole liveness guarantee: a run always ends in a final
// answer, a round-limit result, or cancellation.
//
// An OuterFlow owns a Task: it decomposes it into subtasks (via a
// Planner), drives one InnerFlow run per subtask, aggregates the
// results, and decides continuation, replanning, or termination. The two
// tiers share nothing but the subtask-in / result-out contract.
//
// An Engine runs independent Tasks concurrently as isolated units that
// share only the read-only tool registry and agent profiles.
//
// Controllers report progress through an EventEmitter rather than a
// logger; the host application consumes the event channel.
package flow
