// Package ban implements C9, the accept-time ban/access gate: site bans
// and password-challenge bans tested against both hostname and numeric
// address, first matching unexpired rule wins.
package ban

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mudengine/internal/clock"
)

// Rule is one ban entry, grounded in bans.cpp's Ban struct.
type Rule struct {
	Site     string
	IsPrefix bool
	IsSuffix bool
	Password string
	Reason   string
	By       string
	SetAt    time.Time
	// ExpiresAt is the zero time for an indefinite ban
	// (bans.cpp: duration <= 0 means "Indefinite").
	ExpiresAt time.Time
}

// Matches reports whether toMatch is covered by r, mirroring
// Ban::matches's match-kind precedence: wildcard, then
// prefix-and-suffix (substring), then prefix-only, then suffix-only,
// then exact.
func (r Rule) Matches(toMatch string) bool {
	switch {
	case r.Site == "*":
		return true
	case r.IsPrefix && r.IsSuffix:
		return strings.Contains(toMatch, r.Site)
	case r.IsPrefix:
		return strings.HasPrefix(toMatch, r.Site)
	case r.IsSuffix:
		return strings.HasSuffix(toMatch, r.Site)
	default:
		return toMatch == r.Site
	}
}

// Expired reports whether r's duration has elapsed as of now.
func (r Rule) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Decision is the result of testing a connecting address against the
// rule table.
type Decision int

const (
	// Allow means no rule matched: proceed to the login FSM.
	Allow Decision = iota
	// Deny means a matched rule has no password: close the connection.
	Deny
	// PasswordChallenge means a matched rule has a password: prompt for
	// it before closing or allowing through.
	PasswordChallenge
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case PasswordChallenge:
		return "password_challenge"
	default:
		return "unknown"
	}
}

// RuleStore persists the authoritative rule table; an expired rule is
// deleted there once it is observed to have lapsed (bans.cpp: "Ban has
// expired so delete it" inside isLockedOut).
type RuleStore interface {
	DeleteRule(ctx context.Context, site string) error
}

// DecisionCache is an optional fast-path cache in front of the rule scan,
// so a burst of reconnect attempts from the same address does not re-walk
// the full rule table on every accept.
type DecisionCache interface {
	Get(ctx context.Context, key string) (Decision, bool)
	Set(ctx context.Context, key string, d Decision, ttl time.Duration)
}

// Gate is C9: the accept-time policy filter.
type Gate struct {
	mu    sync.Mutex
	rules []Rule

	store RuleStore
	cache DecisionCache
	clock clock.Clock
	log   *logrus.Logger

	// CacheTTL controls how long a non-expiring decision is cached; zero
	// disables caching even when cache is set.
	CacheTTL time.Duration
}

// NewGate returns a Gate seeded with rules. store and cache may be nil.
func NewGate(rules []Rule, store RuleStore, cache DecisionCache, c clock.Clock, log *logrus.Logger) *Gate {
	if c == nil {
		c = clock.System{}
	}
	return &Gate{rules: rules, store: store, cache: cache, clock: c, log: log, CacheTTL: 30 * time.Second}
}

// Refresh replaces the in-memory rule table, used after an admin *ban or
// *unban command mutates the authoritative store.
func (g *Gate) Refresh(rules []Rule) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = rules
}

// Check tests hostname and ip against the rule table and returns the
// first matching unexpired rule's decision, per Config::isLockedOut.
// Expired rules encountered along the way are deleted and the scan
// restarts, exactly mirroring isLockedOut's "return(isLockedOut(sock))"
// recursive retest.
func (g *Gate) Check(ctx context.Context, hostname, ip string) (Decision, *Rule) {
	cacheKey := hostname + "|" + ip
	if g.cache != nil && g.CacheTTL > 0 {
		if d, ok := g.cache.Get(ctx, cacheKey); ok {
			return d, nil
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	for {
		idx, rule := g.firstMatch(hostname, ip)
		if rule == nil {
			g.cacheSet(ctx, cacheKey, Allow)
			return Allow, nil
		}
		if rule.Expired(now) {
			g.deleteAt(idx)
			continue
		}
		if rule.Password != "" {
			return PasswordChallenge, rule
		}
		if g.log != nil {
			g.log.WithField("site", rule.Site).WithField("host", hostname).Warn("ban: denying access")
		}
		g.cacheSet(ctx, cacheKey, Deny)
		return Deny, rule
	}
}

func (g *Gate) firstMatch(hostname, ip string) (int, *Rule) {
	for i := range g.rules {
		r := &g.rules[i]
		if r.Matches(hostname) || r.Matches(ip) {
			return i, r
		}
	}
	return -1, nil
}

func (g *Gate) deleteAt(idx int) {
	site := g.rules[idx].Site
	g.rules = append(g.rules[:idx], g.rules[idx+1:]...)
	if g.store != nil {
		if err := g.store.DeleteRule(context.Background(), site); err != nil && g.log != nil {
			g.log.WithError(err).WithField("site", site).Warn("ban: failed to delete expired rule")
		}
	}
}

func (g *Gate) cacheSet(ctx context.Context, key string, d Decision) {
	if g.cache != nil && g.CacheTTL > 0 {
		g.cache.Set(ctx, key, d, g.CacheTTL)
	}
}
