// Package core provides the foundational domain types, interfaces and execution
// contexts used by agentgraph. It defines the core abstractions for:
//
//   - Messages (role + ordered closed set of Parts: text, tool calls, tool results)
//   - ConversationState (the unit of execution threaded through the agent graph)
//   - StepLimiter (recursion limit bookkeeping)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - TranscriptSummary (structured output of the transcript pipeline)
//   - The error taxonomy shared by all components
//
// The package keeps implementation concerns (providers, tools, persistence,
// orchestration) out of scope, exposing small types and interfaces so that
// the higher layers stay decoupled from each other.
package core
