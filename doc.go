// Package authkit is the client-side session controller for the GreenLedger
// emission-factor administration backend. It owns the authentication state
// machine — password step, optional second-factor step, cookie-backed
// refresh, logout — and the invite-gated registration and account flows that
// surround it.
//
// The package is the public surface. It exposes [Controller], [Builder],
// [Config], and value types (Session, MetricsSnapshot, AuditEvent). Network
// access is confined to the transport subpackage; snapshot persistence to
// the store subpackage. The controller never reads the session cookie: the
// backend's cookie is the source of truth, and the controller's Session
// record is an advisory cache that any unauthorized signal resets to
// anonymous.
//
// # Concurrency
//
// Controller methods are safe to call from multiple goroutines after
// [Builder.Build]. Transitions are serialized on the session record, and an
// epoch counter discards the result of any call that was still in flight
// when a logout or a fresh login intervened, so neither a logout nor a
// replaced challenge can be undone by a late response.
package authkit
