// Package instrumentation provides OpenTelemetry-based observability for
// calchat: metrics for conversation turns, model requests, tool dispatch,
// calendar API operations and OAuth lifecycle events, plus optional
// distributed tracing and structured audit logging.
//
// Instrumentation is configured through environment variables (see
// DefaultConfig) and degrades to no-ops when disabled, so callers record
// metrics unconditionally.
package instrumentation
