// Package logging provides structured logging helpers built on log/slog.
//
// It defines the attribute key constants used across the codebase so that
// log lines stay greppable (operation, tool, calendar_id, event_id), small
// constructors for those attributes, and a Logger interface plus slog
// adapter for components that should not depend on slog directly.
package logging
