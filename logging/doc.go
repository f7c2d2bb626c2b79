// Package logging provides a minimal logging interface and adapters for agentgraph.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that the graph, engine and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping a zap sugared logger (used by the CLI)
//   - NoOpLogger for silent operation (testing, library defaults)
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	eng := engine.New(registry, selector, store, func(o *engine.Options) { o.Logger = logger })
//
// Messages are dotted event names ("graph.deciding.start") followed by
// alternating key/value pairs.
package logging
