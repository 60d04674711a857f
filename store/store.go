package store

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrSnapshotNotFound is returned by Load when no snapshot is stored.
var ErrSnapshotNotFound = errors.New("session snapshot not found")

// ErrSnapshotCorrupt is returned when a stored blob cannot be decoded or has
// an unsupported schema version.
var ErrSnapshotCorrupt = errors.New("session snapshot corrupt")

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("session store unavailable")

// Snapshot is the persisted shape of an authenticated session: the last
// identity the backend confirmed and the cookies that carry the real
// session. Cookie values are opaque blobs and are never interpreted.
type Snapshot struct {
	UserID    string         `json:"user_id"`
	Role      string         `json:"role"`
	ExpiresAt time.Time      `json:"expires_at,omitzero"`
	SavedAt   time.Time      `json:"saved_at"`
	Cookies   []*http.Cookie `json:"cookies,omitempty"`
}

// Store persists at most one snapshot per logical client.
type Store interface {
	// Save overwrites the stored snapshot. A positive ttl bounds its
	// lifetime where the backend supports expiry.
	Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error
	// Load returns the stored snapshot or ErrSnapshotNotFound.
	Load(ctx context.Context) (*Snapshot, error)
	// Clear removes the stored snapshot. Clearing an empty store is not
	// an error.
	Clear(ctx context.Context) error
}
