// Package graph implements the agent state graph: a bounded decide/act loop
// over an explicit core.ConversationState.
//
// States:
//
//	start ──► deciding ──(tool calls)──► executing_tools ──► deciding ...
//	              │                              │
//	              └──(final answer)──► end       └──(ask_human)──► interrupted
//
// Every deciding entry increments the step counter. When the recursion
// limit would be exceeded, or the model still requests tools on the last
// permitted step, the run ends with a truncated result instead of an error.
// Tool calls of one round run concurrently and are joined before the next
// deciding step; every call receives exactly one result.
//
// The caller's deadline is honoured at state boundaries only: a running tool
// round is never cut short by it (each tool is bounded by its own timeout).
package graph
