// Package model defines the provider-agnostic abstractions for interacting
// with language models and the selector that binds one backend per
// invocation.
//
// Core goals:
//   - Unify streaming and non-streaming generation behind a single interface
//   - Normalize tool call and structured output representation
//   - Resolve a backend once, by credential presence: Claude, then GPT, then
//     the deterministic offline MockModel
//
// Providers (model/anthropic, model/openai) implement the Model interface
// from this package so higher layers (graph, transcript) remain decoupled from
// vendor SDKs.
package model
