// Package calendar implements the calendar operation set over the Google
// Calendar API.
//
// Requests are normalized before any network call: date-times arrive in
// the "2006-01-02 15:04:05" wire format (date-only for all-day events),
// defaults are filled (UTC timezone, primary calendar, one-hour duration
// when no end time is given), and enumerated fields are validated eagerly
// so malformed input never produces a backend round trip. Update requests
// use pointer fields to distinguish absent from zero-valued input, and
// only present fields are sent as a patch.
package calendar
