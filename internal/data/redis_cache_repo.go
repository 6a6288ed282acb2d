package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyCacheKey rejects operations on the empty key.
var ErrEmptyCacheKey = errors.New("cache key cannot be empty")

// RedisCacheRepo implements core.CacheRepository on Redis. It backs the status read cache.
type RedisCacheRepo struct {
	client redis.UniversalClient
}

// NewRedisCacheRepo wraps a single-node, sentinel or cluster client.
func NewRedisCacheRepo(client redis.UniversalClient) *RedisCacheRepo {
	return &RedisCacheRepo{client: client}
}

// Set stores value under key. A zero ttl keeps the key until it is deleted.
func (r *RedisCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyCacheKey
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get returns nil, nil on a miss.
func (r *RedisCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyCacheKey
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

func (r *RedisCacheRepo) Delete(ctx context.Context, key string) (bool, error) {
	return r.countKeys(ctx, key, r.client.Del)
}

func (r *RedisCacheRepo) Exists(ctx context.Context, key string) (bool, error) {
	return r.countKeys(ctx, key, r.client.Exists)
}

// versionKeySuffix names the marker that records the highest version written under a key.
// Callers that run on Redis Cluster must hash-tag their keys so both land in one slot.
const versionKeySuffix = ":version"

// minVersionTTL keeps the version marker well past the value it guards.
const minVersionTTL = 24 * time.Hour

// setIfNewerScript writes the value and its version unless the stored version is higher.
// An equal version rewrites the same row snapshot, so it is accepted and refreshes the TTL.
var setIfNewerScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2])
if current and tonumber(current) > tonumber(ARGV[2]) then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[1])
end
if tonumber(ARGV[4]) > 0 then
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[4])
else
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// SetIfNewer stores value under key when version is at least the highest version seen for key.
func (r *RedisCacheRepo) SetIfNewer(
	ctx context.Context,
	key string,
	value []byte,
	version int64,
	ttl time.Duration,
) (bool, error) {
	if key == "" {
		return false, ErrEmptyCacheKey
	}
	versionTTL := ttl
	if ttl > 0 && ttl < minVersionTTL {
		versionTTL = minVersionTTL
	}
	n, err := setIfNewerScript.Run(ctx, r.client,
		[]string{key, key + versionKeySuffix},
		value, version, ttl.Milliseconds(), versionTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis set if newer %s: %w", key, err)
	}
	return n == 1, nil
}

// countKeys runs a multi-key integer command against one key and reports whether it touched it.
func (r *RedisCacheRepo) countKeys(
	ctx context.Context,
	key string,
	cmd func(context.Context, ...string) *redis.IntCmd,
) (bool, error) {
	if key == "" {
		return false, ErrEmptyCacheKey
	}
	n, err := cmd(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis %s: %w", key, err)
	}
	return n > 0, nil
}

// Health pings the server.
func (r *RedisCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
