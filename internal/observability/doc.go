// Package observability provides structured logging, orchestration events,
// and tracing for the news gateway.
//
// This package implements:
//   - zap logger construction from configuration
//   - EventSink, the structured event stream emitted by the orchestrator
//   - OpenTelemetry tracer provider setup (stdout exporter)
//   - Request ID propagation through context
package observability
