package authkit

import "time"

// Phase is the authentication phase of the client session.
type Phase uint8

const (
	// PhaseAnonymous is the initial phase; no identity is held.
	PhaseAnonymous Phase = iota
	// PhaseAwaitingSecondFactor holds a temp token issued after password
	// verification, pending a one-time code.
	PhaseAwaitingSecondFactor
	// PhaseAuthenticated holds the identity the backend last confirmed.
	PhaseAuthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseAnonymous:
		return "anonymous"
	case PhaseAwaitingSecondFactor:
		return "awaiting_second_factor"
	case PhaseAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is the single client-held authentication record. It is a value
// snapshot; mutating a copy has no effect on the controller.
//
// Exactly one of TempToken and UserID is set outside PhaseAnonymous: a
// session is either mid-challenge (TempToken set) or authenticated (UserID
// set), never both. ExpiresAt is best effort and may be zero; refresh is
// attempted both proactively and reactively regardless.
type Session struct {
	Phase     Phase
	UserID    string
	Role      string
	TempToken string
	ExpiresAt time.Time
}

// RegistrationInput is the self-registration payload. Password carries a
// presence check only; strength policy is the backend's.
type RegistrationInput struct {
	Email    string `validate:"required,email"`
	Username string `validate:"required,min=3"`
	Password string `validate:"required"`
}
