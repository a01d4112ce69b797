// Package idempotency implements the idempotency guard on Redis.
// A claim is a SET NX PX on a tenant-scoped key whose value is the owning evidence id.
// It starts with a short pending TTL and is extended to the full window by
// Confirm once the owning record has committed.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ledger:idem"

// PendingTTL bounds how long an unconfirmed claim blocks the key.
const PendingTTL = 30 * time.Second

// releaseScript deletes the key only while it still names the releasing owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// confirmScript extends the TTL only while the key still names the owner.
var confirmScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Guard stores idempotency claims in Redis.
type Guard struct {
	rdb redis.UniversalClient
}

// New creates a Redis-backed idempotency guard.
func New(rdb redis.UniversalClient) *Guard {
	return &Guard{rdb: rdb}
}

// Key returns the Redis key for a tenant's idempotency key.
func Key(tenantID, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, tenantID, key)
}

// Claim atomically binds key to evidenceID for window. When an unexpired
// claim already exists it returns that claim's evidence id and claimed=false.
// Expiry is enforced by Redis, so now is not consulted.
func (g *Guard) Claim(ctx context.Context, tenantID, key, evidenceID string, window time.Duration, _ time.Time) (string, bool, error) {
	k := Key(tenantID, key)
	window = min(window, PendingTTL)

	ok, err := g.rdb.SetNX(ctx, k, evidenceID, window).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim idempotency key %s: %w", key, err)
	}
	if ok {
		return evidenceID, true, nil
	}

	owner, err := g.rdb.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = g.rdb.SetNX(ctx, k, evidenceID, window).Result()
		if err != nil {
			return "", false, fmt.Errorf("claim idempotency key %s: %w", key, err)
		}
		if ok {
			return evidenceID, true, nil
		}
		owner, err = g.rdb.Get(ctx, k).Result()
	}
	if err != nil {
		return "", false, fmt.Errorf("read idempotency key %s: %w", key, err)
	}
	return owner, false, nil
}

// Confirm extends a claim owned by evidenceID to the full window.
func (g *Guard) Confirm(ctx context.Context, tenantID, key, evidenceID string, window time.Duration) error {
	n, err := confirmScript.Run(ctx, g.rdb, []string{Key(tenantID, key)}, evidenceID, window.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("confirm idempotency key %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("confirm idempotency key %s: claim lost", key)
	}
	return nil
}

// Release drops the claim if evidenceID still owns it.
func (g *Guard) Release(ctx context.Context, tenantID, key, evidenceID string) error {
	if err := releaseScript.Run(ctx, g.rdb, []string{Key(tenantID, key)}, evidenceID).Err(); err != nil {
		return fmt.Errorf("release idempotency key %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection.
func (g *Guard) Ping(ctx context.Context) error {
	return g.rdb.Ping(ctx).Err()
}
