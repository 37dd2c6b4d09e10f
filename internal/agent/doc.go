// Package agent implements the conversational control loop: it holds the
// append-only message history, sends it to a chat completion service
// together with the calendar tool declarations, dispatches the tool calls
// the model requests, and surfaces the model's final text as the answer.
//
// The loop boundary never leaks errors to the user; failures are logged
// and replaced with fixed fallback strings.
package agent
