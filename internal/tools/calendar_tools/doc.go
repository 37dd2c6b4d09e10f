// Package calendar_tools declares the calendar tool set: schemas and
// handlers for searching, creating, updating and deleting events, listing
// calendars, and reading the current time in a calendar's time zone.
//
// The tools are declared once and shared between the conversational agent
// loop and the MCP serve mode. Handlers validate their arguments before
// touching the network and report failures as explicit tool error
// results, never as success-shaped text.
package calendar_tools
