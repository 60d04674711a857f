package store

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *Snapshot {
	return &Snapshot{
		UserID:  "u1",
		Role:    "superAdmin",
		SavedAt: time.Now().UTC().Truncate(time.Second),
		Cookies: []*http.Cookie{
			{Name: "session", Value: "opaque-blob", Path: "/"},
		},
	}
}

// roundTrip exercises the Save/Load/Clear contract shared by every store.
func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	snap := testSnapshot()
	require.NoError(t, s.Save(ctx, snap, 0))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.UserID, loaded.UserID)
	assert.Equal(t, snap.Role, loaded.Role)
	require.Len(t, loaded.Cookies, 1)
	assert.Equal(t, "opaque-blob", loaded.Cookies[0].Value)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	// Clearing an empty store is not an error.
	require.NoError(t, s.Clear(ctx))
}

func TestMemoryRoundTrip(t *testing.T) {
	roundTrip(t, NewMemory())
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	require.NoError(t, mem.Save(ctx, testSnapshot(), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := mem.Load(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestMemorySaveOverwrites(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()

	first := testSnapshot()
	require.NoError(t, mem.Save(ctx, first, 0))

	second := testSnapshot()
	second.UserID = "u2"
	require.NoError(t, mem.Save(ctx, second, 0))

	loaded, err := mem.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u2", loaded.UserID)
}

func TestFileRoundTrip(t *testing.T) {
	roundTrip(t, NewFile(filepath.Join(t.TempDir(), "session.json")))
}

func TestFileCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dirs", "session.json")
	require.NoError(t, NewFile(path).Save(context.Background(), testSnapshot(), 0))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileCorruptContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0o600))

	_, err := NewFile(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)
}

func TestFileSchemaVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":999,"snapshot":{}}`), 0o600))

	_, err := NewFile(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)
}

func newTestRedis(t *testing.T) *Redis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, "authkit:test:session")
}

func TestRedisRoundTrip(t *testing.T) {
	roundTrip(t, newTestRedis(t))
}

func TestRedisTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, "authkit:test:session")
	require.NoError(t, s.Save(context.Background(), testSnapshot(), time.Minute))

	// miniredis advances time manually.
	mr.FastForward(2 * time.Minute)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRedisDefaultKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, "")
	require.NoError(t, s.Save(context.Background(), testSnapshot(), 0))
	assert.True(t, mr.Exists("authkit:session"))
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	s := NewRedis(client, "authkit:test:session")
	err := s.Save(context.Background(), testSnapshot(), 0)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRedisCorruptBlob(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, mr.Set("authkit:test:session", "garbage"))

	s := NewRedis(client, "authkit:test:session")
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotCorrupt)
}
