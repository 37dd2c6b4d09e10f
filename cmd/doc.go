// Package cmd implements the command-line interface for calchat.
//
// This package provides the following commands:
//   - chat: Interactive calendar chat session (default when no subcommand)
//   - login, logout, status: Manage the stored Google Calendar credentials
//   - serve: Start the MCP server to provide the calendar tools to AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
