package command

import (
	"sort"
	"strings"
	"time"
)

// Actor is the minimal view of a Player the gate predicates and handlers
// need. worldmodel.Player satisfies this interface structurally, keeping
// this package free of a worldmodel import for its own registration API.
type Actor interface {
	Level() int
	Flag(name string) bool
}

// Gate is an auth predicate (spec.md §4.3 step 4: "Gate"). It returns
// ok=false with a user-visible reason to refuse dispatch.
type Gate func(actor Actor) (ok bool, reason string)

// Result is a handler's outcome: the text to queue as output, and the
// cooldown to apply to the actor's command timer afterward (spec.md §4.3
// step 6: "Post").
type Result struct {
	Output   string
	Cooldown time.Duration
}

// Handler runs a resolved, gated command to completion. Handlers never
// block on I/O (spec.md §5); any unbounded-latency operation is delegated
// to internal/worker instead.
type Handler func(actor Actor, p Parsed) Result

// Command is {name, priority, auth predicate, handler} (spec.md §3).
// Priority is stored with the command; nothing in this package reads it,
// and it does not participate in name resolution.
type Command struct {
	Name     string
	Aliases  []string
	Priority int
	Gate     Gate
	Handler  Handler
}

// Registry is the name/alias -> Command lookup table, generalized from the
// teacher's CommandRegistry (internal/game/commands.go) from exact-string
// matching to the prefix resolution spec.md §4.3 requires.
type Registry struct {
	byName map[string]*Command
	names  []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Command)}
}

// Register adds cmd under its name and every alias. Registering the same
// name twice replaces the earlier entry, mirroring the teacher's map-based
// registration (last write wins).
func (r *Registry) Register(cmd *Command) {
	r.add(cmd.Name, cmd)
	for _, alias := range cmd.Aliases {
		r.add(alias, cmd)
	}
}

func (r *Registry) add(name string, cmd *Command) {
	if _, exists := r.byName[name]; !exists {
		r.names = append(r.names, name)
	}
	r.byName[name] = cmd
}

// Resolve looks verb up, first by exact name/alias match, then by prefix.
//
// Prefix resolution (spec.md §4.3 step 3) collects every registered name
// verb is a prefix of. If the matches form a single chain under
// prefix-containment (each the prefix of the next, e.g. "*ban" and
// "*bans"), the shortest, most general member of the chain is returned
// unambiguously — a more specific command sharing the abbreviation's root
// doesn't make the abbreviation ambiguous. Only when the matches diverge
// into independent branches (e.g. "north" alongside "note") is the lookup
// truly ambiguous; Resolve then returns nil and the candidate list in
// tie-break order (longer known commands first, then alphabetical) for the
// caller to report.
func (r *Registry) Resolve(verb string) (cmd *Command, ambiguous []string) {
	if verb == "" {
		return nil, nil
	}
	if c, ok := r.byName[verb]; ok {
		return c, nil
	}

	var matches []string
	for _, name := range r.names {
		if strings.HasPrefix(name, verb) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i]) != len(matches[j]) {
			return len(matches[i]) < len(matches[j])
		}
		return matches[i] < matches[j]
	})
	if len(matches) == 1 || isChain(matches) {
		return r.byName[matches[0]], nil
	}

	sort.Slice(matches, func(i, j int) bool {
		if len(matches[i]) != len(matches[j]) {
			return len(matches[i]) > len(matches[j])
		}
		return matches[i] < matches[j]
	})
	return nil, matches
}

// isChain reports whether names, sorted shortest-first, form a single
// prefix chain: each entry a prefix of the next.
func isChain(names []string) bool {
	for i := 1; i < len(names); i++ {
		if !strings.HasPrefix(names[i], names[i-1]) {
			return false
		}
	}
	return true
}
