// Package server provides the shared runtime context for tool handlers
// along with the operational HTTP endpoints.
//
// ServerContext holds the Google credential provider, a lazily created
// calendar client, and optional instrumentation. MetricsServer exposes
// Prometheus metrics and health endpoints on a dedicated port so they
// stay off the MCP stdio transport.
package server
