// Package transport implements the Credential Transport: one stateless
// request/response method per backend authentication endpoint.
//
// The transport owns no session state. The backend keeps the real session in
// an opaque cookie; the HTTP client's cookie jar carries it on every request
// and nothing in this package ever inspects a cookie value. Every call
// resolves to a typed result or to one of the package's error kinds — raw
// network and decoding errors never cross this boundary.
package transport
