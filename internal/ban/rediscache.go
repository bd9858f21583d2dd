package ban

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is the optional fast-path DecisionCache in front of the ban
// rule scan, backed by Redis so a burst of reconnects from one address
// does not re-walk the full rule table on every accept.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps client, namespacing keys under prefix (e.g.
// "mud:ban:").
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Decision, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		// redis.Nil (no entry) and any connectivity error both fail open
		// to a cache miss: the gate then falls through to the rule scan.
		return Allow, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return Allow, false
	}
	return Decision(n), true
}

func (c *RedisCache) Set(ctx context.Context, key string, d Decision, ttl time.Duration) {
	// Best-effort: a failed cache write never blocks the accept-time
	// decision that was already computed from the authoritative rules.
	_ = c.client.Set(ctx, c.prefix+key, strconv.Itoa(int(d)), ttl).Err()
}
