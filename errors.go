package authkit

import (
	"errors"

	"github.com/greenledger/authkit/transport"
)

// Transport taxonomy, re-exported so callers match outcomes without
// importing the transport package.
var (
	// ErrRequestFailed reports a call that never completed; the message
	// is generic and safe to display.
	ErrRequestFailed = transport.ErrRequestFailed
	// ErrUnauthorized reports that the backend no longer honors the
	// session. The controller has already reset itself to anonymous when
	// this is returned.
	ErrUnauthorized = transport.ErrUnauthorized
)

var (
	// ErrControllerNotReady is returned when a Controller is used before
	// Builder.Build wired its dependencies.
	ErrControllerNotReady = errors.New("controller not ready")
	// ErrNoPendingChallenge is returned by SubmitSecondFactor when no
	// second-factor challenge is awaiting a code.
	ErrNoPendingChallenge = errors.New("no second-factor challenge pending")
	// ErrSuperseded is returned when a transition completed but its
	// result was discarded because the session changed (logout or a new
	// login) while the call was in flight.
	ErrSuperseded = errors.New("result discarded: session changed during request")
	// ErrPasswordReuse is the local policy rejection raised before any
	// network call when the new password equals the current one.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrPasswordRequired is returned when a password field is empty.
	ErrPasswordRequired = errors.New("password required")
	// ErrRegistrationInvalid wraps client-side registration input
	// validation failures.
	ErrRegistrationInvalid = errors.New("invalid registration input")
	// ErrNoStore is returned by Resume when the controller was built
	// without a snapshot store.
	ErrNoStore = errors.New("no session store configured")
)
