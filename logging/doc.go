// Package logging provides a minimal logging interface and adapters for CampusMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the router, agents and handlers use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - RouterLogger with contextual helpers and domain logging methods
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	mesh := campusmesh.New(classifier, answerer, func(o *campusmesh.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
