// Package agent contains the agent registry: a fixed, immutable mapping from
// agent identifier to a compiled state graph plus human-readable metadata.
//
// Definitions are built once at startup (NewDefinition compiles the graph
// over the agent's ordered tool set) and handed to NewRegistry, which
// designates one of them the default. After construction the registry only
// exposes read-only accessors and is safe for concurrent lookups.
//
// The package also ships the built-in definitions (research-assistant and
// chatbot) and the Instruction type used to template system prompts.
package agent
