// Redis-backed counter store.
//
// For horizontally scaled deployments the window counters must be shared
// across instances. A single Lua script performs the whole
// check-and-increment on the server, giving the same per-key atomicity the
// in-memory store gets from its mutex. Keys expire with their window, so
// Redis handles eviction natively.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript increments the counter, starts the window on first use, and
// rejects once the quota is exceeded, returning the remaining window in
// milliseconds for the retry-after hint.
var takeScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if count > tonumber(ARGV[2]) then
	local ttl = redis.call("PTTL", KEYS[1])
	if ttl < 0 then
		ttl = tonumber(ARGV[1])
	end
	return {0, ttl}
end
return {1, 0}
`)

// RedisStore implements Store over a go-redis client. All instances sharing
// the client (and key prefix) share one set of counters.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a RedisStore. Keys are namespaced under
// "ratelimit:" to keep the keyspace legible alongside other users of the
// same Redis.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, key string, quota int, window time.Duration) (bool, int, error) {
	res, err := takeScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds(), quota).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit: redis take: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("ratelimit: redis take: unexpected reply %v", res)
	}
	allowed, _ := res[0].(int64)
	ttlMs, _ := res[1].(int64)
	if allowed == 1 {
		return true, 0, nil
	}
	return false, ceilSeconds(time.Duration(ttlMs) * time.Millisecond), nil
}
