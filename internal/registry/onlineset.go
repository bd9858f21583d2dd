package registry

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisOnlineSet backs the "who's online" set with a Redis set so the
// `who`/`users` listing stays correct across a process restart that
// preserves Redis (SPEC_FULL.md's supplemented admin surface), unlike a
// purely in-memory registry which a reboot silently empties.
type RedisOnlineSet struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

// NewRedisOnlineSet wraps client, storing members under key (e.g.
// "mud:online"). ctx bounds every Redis call issued through this set.
func NewRedisOnlineSet(ctx context.Context, client *redis.Client, key string) *RedisOnlineSet {
	return &RedisOnlineSet{client: client, key: key, ctx: ctx}
}

// Add puts name in the online set. Best-effort: a failed write never
// blocks login, since the in-memory Registry.sessions map remains the
// authoritative record of who is actually connected to this process.
func (s *RedisOnlineSet) Add(name string) {
	_ = s.client.SAdd(s.ctx, s.key, name).Err()
}

// Remove takes name out of the online set on logout or disconnect.
func (s *RedisOnlineSet) Remove(name string) {
	_ = s.client.SRem(s.ctx, s.key, name).Err()
}

// Members returns every name currently in the online set. Order is
// whatever Redis returns (unordered), since spec.md places no ordering
// requirement on the `who` listing.
func (s *RedisOnlineSet) Members() []string {
	members, err := s.client.SMembers(s.ctx, s.key).Result()
	if err != nil {
		return nil
	}
	return members
}
