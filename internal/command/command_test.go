package command

import (
	"testing"
	"time"

	"mudengine/internal/clock"
	"mudengine/internal/mudcode"
)

func echoHandler(text string) Handler {
	return func(actor Actor, p Parsed) Result { return Result{Output: text} }
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register(&Command{Name: "north", Handler: echoHandler("you go north")})
	r.Register(&Command{Name: "note", Handler: echoHandler("you write a note")})
	r.Register(&Command{Name: "notice", Handler: echoHandler("you post a notice")})
	return r
}

func TestResolveExactNameMatchesDirectly(t *testing.T) {
	r := newTestRegistry()
	cmd, ambiguous := r.Resolve("north")
	if cmd == nil || cmd.Name != "north" || ambiguous != nil {
		t.Fatalf("Resolve(north) = %v, %v", cmd, ambiguous)
	}
}

func TestResolveDivergingPrefixIsAmbiguous(t *testing.T) {
	r := newTestRegistry()
	cmd, ambiguous := r.Resolve("no")
	if cmd != nil {
		t.Fatalf("Resolve(no) = %v, want nil (ambiguous)", cmd)
	}
	if len(ambiguous) != 3 {
		t.Fatalf("ambiguous = %v, want 3 candidates", ambiguous)
	}
}

func TestResolveChainedPrefixPicksShortestMember(t *testing.T) {
	r := newTestRegistry()
	cmd, ambiguous := r.Resolve("not")
	if ambiguous != nil {
		t.Fatalf("ambiguous = %v, want nil", ambiguous)
	}
	if cmd == nil || cmd.Name != "note" {
		t.Fatalf("Resolve(not) = %v, want note", cmd)
	}
}

func TestResolveUnknownPrefixReturnsNothing(t *testing.T) {
	r := newTestRegistry()
	cmd, ambiguous := r.Resolve("xyz")
	if cmd != nil || ambiguous != nil {
		t.Fatalf("Resolve(xyz) = %v, %v, want nil, nil", cmd, ambiguous)
	}
}

func TestResolveAliasMatchesRegisteredCommand(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{Name: "look", Aliases: []string{"l"}, Handler: echoHandler("you look around")})
	cmd, _ := r.Resolve("l")
	if cmd == nil || cmd.Name != "look" {
		t.Fatalf("Resolve(l) = %v, want look", cmd)
	}
}

type fakeActor struct {
	level int
	flags map[string]bool
}

func (a fakeActor) Level() int            { return a.level }
func (a fakeActor) Flag(name string) bool { return a.flags[name] }

func TestDispatchRunsHandlerAndAppliesCooldown(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{
		Name: "attack",
		Handler: func(actor Actor, p Parsed) Result {
			return Result{Output: "you swing", Cooldown: 2 * time.Second}
		},
	})
	c := clock.NewManual(time.Unix(0, 0))
	timer := clock.NewTimer(c)

	out, err := Dispatch(r, c, timer, fakeActor{}, "attack")
	if err != nil {
		t.Fatalf("Dispatch error: %v", err)
	}
	if out != "you swing" {
		t.Fatalf("out = %q", out)
	}
	if timer.TimeLeft(c) != 2*time.Second {
		t.Fatalf("TimeLeft = %v, want 2s", timer.TimeLeft(c))
	}
}

func TestDispatchRefusesWhileCooldownIsActive(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register(&Command{
		Name: "attack",
		Handler: func(actor Actor, p Parsed) Result {
			calls++
			return Result{Output: "you swing", Cooldown: 2 * time.Second}
		},
	})
	c := clock.NewManual(time.Unix(0, 0))
	timer := clock.NewTimer(c)

	if _, err := Dispatch(r, c, timer, fakeActor{}, "attack"); err != nil {
		t.Fatalf("first Dispatch error: %v", err)
	}

	_, err := Dispatch(r, c, timer, fakeActor{}, "attack")
	if err == nil {
		t.Fatal("expected cooldown refusal on second immediate dispatch")
	}
	if mudcode.KindOf(err) != mudcode.Overloaded {
		t.Fatalf("Kind = %v, want Overloaded", mudcode.KindOf(err))
	}
	if calls != 1 {
		t.Fatalf("handler called %d times, want 1 while cooldown is active", calls)
	}

	c.Advance(2 * time.Second)
	if _, err := Dispatch(r, c, timer, fakeActor{}, "attack"); err != nil {
		t.Fatalf("Dispatch after cooldown expiry error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("handler called %d times, want 2 after cooldown expiry", calls)
	}
}

func TestDispatchRefusesWhenGateFails(t *testing.T) {
	r := NewRegistry()
	r.Register(&Command{
		Name:    "shutdown",
		Gate:    MinLevel(100),
		Handler: echoHandler("shutting down"),
	})
	out, err := Dispatch(r, clock.System{}, nil, fakeActor{level: 1}, "shutdown")
	if err == nil {
		t.Fatal("expected gate failure error")
	}
	if out != "" {
		t.Fatalf("out = %q, want empty on refusal", out)
	}
}

func TestDispatchUnknownVerbReportsParseError(t *testing.T) {
	r := NewRegistry()
	_, err := Dispatch(r, clock.System{}, nil, fakeActor{}, "fly")
	if err == nil {
		t.Fatal("expected parse error for unknown verb")
	}
}

func TestDispatchAmbiguousVerbReportsCandidates(t *testing.T) {
	r := newTestRegistry()
	_, err := Dispatch(r, clock.System{}, nil, fakeActor{}, "no")
	if err == nil {
		t.Fatal("expected ambiguous-command error")
	}
}
