package testutil

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisPingTimeout = 2 * time.Second
	redisLockTTL     = 30 * time.Minute
	redisMaxTestDB   = 15
)

// redisCandidates are probed in order when REDIS_ADDR is unset: the CI service name,
// a plain local install, then the compose test profile.
var redisCandidates = []string{"redis:6379", "localhost:6379", "localhost:56379"}

// SetupTestRedis returns a client on an emptied logical database that no other test package
// holds. It skips t when no Redis answers.
func SetupTestRedis(t testing.TB) *redis.Client {
	t.Helper()

	addr, ok := findRedis(t)
	if !ok {
		skipOrFail(t, envBool("TEST_REQUIRE_REDIS"), "redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: reserveRedisDB(t, addr)})
	t.Cleanup(func() { closeQuietly(t, "redis client", client) })

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		skipOrFail(t, envBool("TEST_REQUIRE_REDIS"), "redis not available at %s: %v", addr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis test db: %v", err)
	}
	return client
}

func findRedis(t testing.TB) (string, bool) {
	t.Helper()

	candidates := redisCandidates
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	for _, addr := range candidates {
		if pingRedis(addr) == nil {
			return addr, true
		}
	}
	return "", false
}

func pingRedis(addr string) error {
	c := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = c.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}

// reserveRedisDB picks a database index, honouring TEST_REDIS_DB. Otherwise it claims one of
// 1..15 with a lock key held in DB 0, so a FlushDB on the claimed index leaves the lock intact.
func reserveRedisDB(t testing.TB, addr string) int {
	t.Helper()

	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if idx, err := strconv.Atoi(v); err == nil && idx >= 0 {
			return idx
		}
		t.Logf("ignoring invalid TEST_REDIS_DB=%q", v)
	}

	meta := redis.NewClient(&redis.Options{Addr: addr})
	owner := fmt.Sprintf("%d:%d", os.Getpid(), time.Now().UnixNano())
	for idx := 1; idx <= redisMaxTestDB; idx++ {
		key := fmt.Sprintf("courtlist:testutil:db_lock:%d", idx)
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		claimed, err := meta.SetNX(ctx, key, owner, redisLockTTL).Result()
		cancel()
		if err != nil || !claimed {
			continue
		}
		t.Cleanup(func() {
			releaseCtx, releaseCancel := context.WithTimeout(context.Background(), redisPingTimeout)
			defer releaseCancel()
			if err := meta.Del(releaseCtx, key).Err(); err != nil {
				t.Logf("release redis db lock %s: %v", key, err)
			}
			closeQuietly(t, "redis meta client", meta)
		})
		t.Logf("using redis db %d at %s", idx, addr)
		return idx
	}

	closeQuietly(t, "redis meta client", meta)
	t.Logf("no free redis db at %s, falling back to db 1", addr)
	return 1
}
