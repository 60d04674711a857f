package store

import (
	"encoding/json"
	"time"
)

// schemaVersion guards persisted blobs across releases. Decoders accept only
// versions they know; anything else is corrupt, and the caller falls back to
// a fresh anonymous session.
const schemaVersion = 1

type envelope struct {
	Version  int      `json:"v"`
	Snapshot Snapshot `json:"snapshot"`
}

func encodeSnapshot(snap *Snapshot) ([]byte, error) {
	env := envelope{Version: schemaVersion, Snapshot: *snap}
	if env.Snapshot.SavedAt.IsZero() {
		env.Snapshot.SavedAt = time.Now().UTC()
	}
	return json.Marshal(env)
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrSnapshotCorrupt
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrSnapshotCorrupt
	}
	if env.Version != schemaVersion {
		return nil, ErrSnapshotCorrupt
	}
	snap := env.Snapshot
	return &snap, nil
}
