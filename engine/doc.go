// Package engine is the orchestration layer consumed by transports.
//
// It exposes the four operations a collaborator needs:
//
//	ListAgents         registry snapshot (id, description, tools)
//	InvokeAgent        one agent turn, optionally bound to a thread
//	AnalyzeTranscript  structured summary of an interview transcript
//	ClearThread        forget a thread's conversation state
//
// An invocation resolves the agent and model, takes a global concurrency
// slot, leases the thread (if any), and runs the agent graph on a clone of
// the stored state. The state is saved back only when the run returns
// without error, so a failed run leaves the thread exactly as it was.
//
// A thread with a pending interrupt is resumed by the next message: the
// message is taken as the answer to the question the agent asked.
//
// Requests without a thread id are stateless; nothing is persisted.
package engine
