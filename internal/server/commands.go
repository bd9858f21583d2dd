package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mudengine/internal/ban"
	"mudengine/internal/command"
	"mudengine/internal/registry"
	"mudengine/internal/worker"
	"mudengine/internal/worldmodel"
)

// banRuleStore is the subset of internal/accounts.Store the admin ban
// commands need, kept as a local interface so this package does not
// require a concrete Store for testing (same decoupling idiom as
// internal/ban.RuleStore and internal/session.Authenticator).
type banRuleStore interface {
	ListBanRules(ctx context.Context) ([]ban.Rule, error)
	InsertRule(ctx context.Context, r ban.Rule) error
	DeleteRule(ctx context.Context, site string) error
}

// RegisterBuiltins installs the core commands this repository implements
// directly rather than treating as out-of-scope gameplay content: `look`,
// `quit`, `who`/`users` (SPEC_FULL.md's supplemented admin surface, backed
// by reg), the `*ban`/`*unban`/`*bans` staff commands (grounded in
// bans.cpp's dmBan/dmUnban/dmListbans, gated behind the §4.3 staff
// predicate), and `*list` (grounded in asynch.cpp's Server::runList),
// which exercises C8 end to end: it branches an external `ls` over
// areaDir through workers and returns immediately, with the child's
// captured output delivered to the requesting session once the child
// exits and the central loop next drains the worker pool.
func RegisterBuiltins(into *command.Registry, reg *registry.Registry, gate *ban.Gate, store banRuleStore, workers *worker.Pool, areaDir string) {
	into.Register(&command.Command{
		Name: "look",
		Handler: func(actor command.Actor, p command.Parsed) command.Result {
			pl, ok := actor.(*worldmodel.Player)
			if !ok {
				return command.Result{Output: "You can't see anything."}
			}
			room, ok := pl.Parent().(*worldmodel.Room)
			if !ok {
				return command.Result{Output: "You are nowhere."}
			}
			return command.Result{Output: describeRoom(room)}
		},
	})

	into.Register(&command.Command{
		Name: "quit",
		Handler: func(actor command.Actor, p command.Parsed) command.Result {
			return command.Result{Output: "Goodbye!"}
		},
	})

	into.Register(&command.Command{
		Name:    "who",
		Aliases: []string{"users"},
		Handler: func(actor command.Actor, p command.Parsed) command.Result {
			names := reg.Who()
			if len(names) == 0 {
				return command.Result{Output: "No one is currently online."}
			}
			return command.Result{Output: fmt.Sprintf("Players online (%d): %s", len(names), strings.Join(names, ", "))}
		},
	})

	staff := command.RequireFlag("staff", "You do not have access to that command.")

	into.Register(&command.Command{
		Name: "*bans",
		Gate: staff,
		Handler: func(actor command.Actor, p command.Parsed) command.Result {
			rules, err := store.ListBanRules(context.Background())
			if err != nil {
				return command.Result{Output: "Error reading ban table: " + err.Error()}
			}
			if len(rules) == 0 {
				return command.Result{Output: "No ban rules are set."}
			}
			var b strings.Builder
			for _, r := range rules {
				fmt.Fprintf(&b, "%s (by %s)\r\n", r.Site, r.By)
			}
			return command.Result{Output: strings.TrimRight(b.String(), "\r\n")}
		},
	})

	into.Register(&command.Command{
		Name: "*ban",
		Gate: staff,
		Handler: func(actor command.Actor, p command.Parsed) command.Result {
			if len(p.Args) == 0 {
				return command.Result{Output: "Usage: *ban <site> [reason...]"}
			}
			rule := ban.Rule{
				Site:   p.Args[0].Text,
				By:     "staff",
				SetAt:  time.Now(),
				Reason: joinArgs(p.Args[1:]),
			}
			if err := store.InsertRule(context.Background(), rule); err != nil {
				return command.Result{Output: "Error saving ban: " + err.Error()}
			}
			refreshGate(gate, store)
			return command.Result{Output: "Banned " + rule.Site + "."}
		},
	})

	into.Register(&command.Command{
		Name: "*unban",
		Gate: staff,
		Handler: func(actor command.Actor, p command.Parsed) command.Result {
			if len(p.Args) == 0 {
				return command.Result{Output: "Usage: *unban <site>"}
			}
			site := p.Args[0].Text
			if err := store.DeleteRule(context.Background(), site); err != nil {
				return command.Result{Output: "Error removing ban: " + err.Error()}
			}
			refreshGate(gate, store)
			return command.Result{Output: "Unbanned " + site + "."}
		},
	})

	into.Register(&command.Command{
		Name: "*list",
		Gate: staff,
		Handler: func(actor command.Actor, p command.Parsed) command.Result {
			pl, ok := actor.(*worldmodel.Player)
			if !ok || workers == nil {
				return command.Result{Output: "Listing is unavailable."}
			}
			workers.Branch(context.Background(), worker.Print, pl.InstanceID(), "ls", "-1", areaDir)
			return command.Result{Output: "Listing area contents..."}
		},
	})
}

func describeRoom(room *worldmodel.Room) string {
	var b strings.Builder
	b.WriteString(room.Title)
	b.WriteString("\r\n")
	b.WriteString(room.Description)
	if len(room.Exits) > 0 {
		names := make([]string, 0, len(room.Exits))
		for _, e := range room.Exits {
			names = append(names, e.Name())
		}
		fmt.Fprintf(&b, "\r\nObvious exits: %s", strings.Join(names, ", "))
	}
	return b.String()
}

func joinArgs(args []command.Token) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.Text)
	}
	return strings.Join(parts, " ")
}

func refreshGate(gate *ban.Gate, store banRuleStore) {
	if gate == nil {
		return
	}
	rules, err := store.ListBanRules(context.Background())
	if err != nil {
		return
	}
	gate.Refresh(rules)
}
