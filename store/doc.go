// Package store persists the advisory session snapshot — the client-held
// cache of what the backend last confirmed, plus the opaque cookies that
// actually carry the session.
//
// The snapshot is never authoritative: a restored snapshot must be validated
// with a refresh round trip before it is trusted. Stores are interchangeable:
// Memory for single-process use and tests, File for CLI-style clients that
// survive process restarts, Redis for fleets of API clients sharing one
// backend session.
package store
