// Package google manages the Google OAuth credential lifecycle.
//
// A single Provider owns the persisted token file: it loads and validates
// the stored credential, refreshes it when expired, runs the interactive
// browser consent flow when no usable credential exists, and removes the
// file on logout. Validity checks (IsLoggedIn) are purely local so callers
// can decide whether to prompt for login without paying for a network
// round trip.
package google
