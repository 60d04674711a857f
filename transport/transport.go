package transport

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrRequestFailed reports that a call never completed: the request could not
// be built, the network call failed, or the response body was unreadable or
// not valid JSON. The underlying cause is deliberately withheld; it is safe
// to display.
var ErrRequestFailed = errors.New("request failed")

// ErrUnauthorized reports that the backend no longer honors the session
// cookie. Callers must treat any cached identity as stale.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError carries a backend-reported field or business error. The
// message is the backend's own text and is passed through for display.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// LoginResult is the outcome of a successful password step.
//
// When SecondFactorRequired is set the session is not yet established:
// TempToken identifies the pending challenge and must be presented to
// VerifySecondFactor. ExpiresAt is best effort — it is populated only when
// the backend happens to return a token whose expiry can be read, and is
// zero otherwise.
type LoginResult struct {
	Role                 string
	UserID               string
	SecondFactorRequired bool
	TempToken            string
	ExpiresAt            time.Time
}

// VerifyResult is the outcome of a successful second-factor confirmation.
type VerifyResult struct {
	Role string
}

// RefreshResult is the refreshed identity returned by the refresh endpoint.
type RefreshResult struct {
	Role      string
	UserID    string
	ExpiresAt time.Time
}

// Profile is the authenticated identity document.
type Profile struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"rol"`
}

// Transport is the narrow contract the session controller talks through.
// Implementations must fold every failure into ErrRequestFailed,
// ErrUnauthorized, or *ValidationError.
type Transport interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	VerifySecondFactor(ctx context.Context, tempToken, code string) (*VerifyResult, error)
	Refresh(ctx context.Context) (*RefreshResult, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, inviteToken, email, username, password string) error
	SendInvite(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	Profile(ctx context.Context) (*Profile, error)
}

// flexID accepts the backend's user id whether it arrives as a JSON string
// or a bare number and normalizes it to an opaque string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }
