package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "authkit:session"

// Redis shares one snapshot between processes, for fleets of API clients
// that hold a single backend session. Expiry is delegated to the server.
type Redis struct {
	client redis.UniversalClient
	key    string
}

// NewRedis returns a redis-backed store. An empty key selects the default
// "authkit:session"; deployments running several logical clients against
// one redis must give each its own key.
func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = defaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) Save(ctx context.Context, snap *Snapshot, ttl time.Duration) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context) (*Snapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return decodeSnapshot(data)
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
