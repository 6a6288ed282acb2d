// Package core defines the ports of the court list publisher and small helpers built on them.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/target/courtlist-publisher/internal/domain/model"
)

// CacheRepository defines the interface for caching operations.
type CacheRepository interface {
	// Set stores a value with the given TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil when the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	Exists(ctx context.Context, key string) (bool, error)

	// SetIfNewer stores value under key unless a write with a higher version already landed.
	// The version marker outlives the value, so a delete does not reopen the key to older writes.
	// It reports whether the value was stored.
	SetIfNewer(ctx context.Context, key string, value []byte, version int64, ttl time.Duration) (bool, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// StatusCache is a write-through cache of status records keyed by courtListId.
// Entries are versioned by LastUpdated, so a slow reader can never replace a newer record
// with the snapshot it fetched before a milestone landed.
// A nil *StatusCache is valid and caches nothing.
type StatusCache struct {
	cache CacheRepository
	ttl   time.Duration
}

// DefaultStatusCacheTTL bounds staleness when an invalidation is lost.
const DefaultStatusCacheTTL = 30 * time.Second

// NewStatusCache returns nil when cache is nil so callers can pass the result through unconditionally.
func NewStatusCache(cache CacheRepository, ttl time.Duration) *StatusCache {
	if cache == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultStatusCacheTTL
	}
	return &StatusCache{cache: cache, ttl: ttl}
}

// Get returns the cached record or nil on a miss.
func (c *StatusCache) Get(ctx context.Context, courtListID string) (*model.PublishStatusRecord, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.cache.Get(ctx, statusKey(courtListID))
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	var rec model.PublishStatusRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode cached status: %w", err)
	}
	return &rec, nil
}

// Put stores the record unless the cache already holds a newer version of it.
// It reports whether the record was stored.
func (c *StatusCache) Put(ctx context.Context, rec *model.PublishStatusRecord) (bool, error) {
	if c == nil || rec == nil {
		return false, nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("encode status: %w", err)
	}
	return c.cache.SetIfNewer(ctx, statusKey(rec.CourtListID), raw, statusVersion(rec), c.ttl)
}

// Invalidate drops the record so the next read goes to the store. Older versions stay rejected.
func (c *StatusCache) Invalidate(ctx context.Context, courtListID string) error {
	if c == nil {
		return nil
	}
	_, err := c.cache.Delete(ctx, statusKey(courtListID))
	return err
}

// statusKey braces the id so the value and its version marker share a cluster slot.
func statusKey(courtListID string) string {
	return "courtlist:status:{" + courtListID + "}"
}

func statusVersion(rec *model.PublishStatusRecord) int64 {
	return rec.LastUpdated.UnixMicro()
}
