// Package common provides shared helpers for tool registration, notably
// the instrumented handler wrapper that records metrics and audit logs
// around every tool invocation.
package common
