// Package agent defines the language-model participants of a flow.
//
// An Agent is an external collaborator: given the conversation so far,
// it proposes the next utterance, a tool call, or a final answer. Agents
// are stateless between calls (everything they know arrives in the
// history) and safe to retry on transient failure.
//
// A Profile is the static description of an agent: its role, system
// prompt, and the tool names it may request. Profiles are built at
// startup and shared read-only across conversations; a Profile satisfies
// dispatch.Caller so the dispatcher can enforce the allow-list.
//
// LLMAgent backs the interface with a gollm model. ScriptedAgent replays
// a fixed sequence of proposals for tests and deterministic pipelines.
package agent
