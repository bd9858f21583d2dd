// Package registry implements C5, the world registry: the set of live
// sessions, the set of active simulated entities, and the id→pointer
// lookup every other component uses instead of walking room trees, per
// spec.md §2/§9. It is grounded on the teacher's `Server.clients
// map[*Client]bool` bookkeeping (cmd/server/main.go), generalized from a
// single flat client set into the two sets spec.md §2 names for C5, both
// keyed by id.
package registry

import (
	"sync"

	"mudengine/internal/session"
	"mudengine/internal/worldmodel"
)

// LiveSession pairs a connected player's identity with its protocol
// session, the registry's view of "who is online right now."
type LiveSession struct {
	PlayerID string
	Name     string
	Session  *session.Session
	Player   *worldmodel.Player
}

// Registry is the single in-memory index of live sessions and active
// entities. The single server loop is its only writer (spec.md §5's
// single-threaded cooperative model), so no lock would strictly be
// required, but Registry takes one anyway — matching C4's cache, it must
// not rely on single-threadedness to stay correct under a future worker
// model.
type Registry struct {
	mu sync.Mutex

	sessionOrder []string
	sessions     map[string]*LiveSession // keyed by PlayerID

	entityOrder []string
	entities    map[string]worldmodel.Entity // keyed by InstanceID, any kind

	online OnlineSet // optional; nil means "in-memory only"
}

// OnlineSet is the process-wide "who's online" set, implemented by
// RedisOnlineSet in production and by a plain in-memory stub in tests or
// single-process deployments that skip Redis entirely.
type OnlineSet interface {
	Add(name string)
	Remove(name string)
	Members() []string
}

// New returns an empty Registry. online may be nil to keep the "who"
// listing purely in-memory (spec.md SPEC_FULL.md: "or, when Redis is
// disabled, the in-memory registry").
func New(online OnlineSet) *Registry {
	return &Registry{
		sessions: make(map[string]*LiveSession),
		entities: make(map[string]worldmodel.Entity),
		online:   online,
	}
}

// Login registers s as playerID's live session, keyed by playerID.
func (r *Registry) Login(playerID, name string, s *session.Session, p *worldmodel.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[playerID]; exists {
		return
	}
	r.sessions[playerID] = &LiveSession{PlayerID: playerID, Name: name, Session: s, Player: p}
	r.sessionOrder = append(r.sessionOrder, playerID)
	if r.online != nil {
		r.online.Add(name)
	}
}

// Logout removes playerID's live session, if present.
func (r *Registry) Logout(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ls, ok := r.sessions[playerID]
	if !ok {
		return
	}
	delete(r.sessions, playerID)
	r.sessionOrder = removeString(r.sessionOrder, playerID)
	if r.online != nil {
		r.online.Remove(ls.Name)
	}
}

// Session returns playerID's live session, if connected.
func (r *Registry) Session(playerID string) (*LiveSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[playerID]
	return ls, ok
}

// LiveSessions returns every connected session in login order.
func (r *Registry) LiveSessions() []*LiveSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*LiveSession, 0, len(r.sessionOrder))
	for _, id := range r.sessionOrder {
		out = append(out, r.sessions[id])
	}
	return out
}

// Who returns the names of currently connected, authenticated players —
// from the Redis-backed online set if configured, otherwise derived from
// the in-memory session list (spec.md SPEC_FULL.md's `who`/`users`
// command).
func (r *Registry) Who() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.online != nil {
		return r.online.Members()
	}
	out := make([]string, 0, len(r.sessionOrder))
	for _, id := range r.sessionOrder {
		out = append(out, r.sessions[id].Name)
	}
	return out
}

// RegisterEntity adds e to the active entity set (e.g. a monster instance
// placed in a room, a wandering spawn) so C7's autonomous-behavior pass
// and id→pointer lookups can find it directly.
func (r *Registry) RegisterEntity(e worldmodel.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := e.InstanceID()
	if _, exists := r.entities[id]; exists {
		return
	}
	r.entities[id] = e
	r.entityOrder = append(r.entityOrder, id)
}

// UnregisterEntity removes id from the active entity set.
func (r *Registry) UnregisterEntity(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entities[id]; !ok {
		return
	}
	delete(r.entities, id)
	r.entityOrder = removeString(r.entityOrder, id)
}

// Entity looks up an active entity by instance id, regardless of kind.
func (r *Registry) Entity(id string) (worldmodel.Entity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[id]
	return e, ok
}

// ActiveEntities returns every registered entity in registration order —
// the set C7 walks once per primary tick for autonomous behaviors.
func (r *Registry) ActiveEntities() []worldmodel.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]worldmodel.Entity, 0, len(r.entityOrder))
	for _, id := range r.entityOrder {
		out = append(out, r.entities[id])
	}
	return out
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
