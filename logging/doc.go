// Package logging provides a minimal logging interface and adapters for the
// support mesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that agents and the orchestrator use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and MeshLogger wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json")
//	orch := orchestrator.New(classifier, conn, orchestrator.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
