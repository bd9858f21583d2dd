package registry

import (
	"testing"

	"mudengine/internal/session"
	"mudengine/internal/worldmodel"
)

func TestLoginRegistersSessionAndIsIdempotent(t *testing.T) {
	r := New(nil)
	s := session.New()
	r.Login("p1", "Alice", s, nil)
	r.Login("p1", "Alice", s, nil) // duplicate login is a no-op

	if len(r.LiveSessions()) != 1 {
		t.Fatalf("got %d live sessions, want 1", len(r.LiveSessions()))
	}
	ls, ok := r.Session("p1")
	if !ok || ls.Name != "Alice" {
		t.Fatalf("got %+v, ok=%v", ls, ok)
	}
}

func TestLogoutRemovesSession(t *testing.T) {
	r := New(nil)
	r.Login("p1", "Alice", session.New(), nil)
	r.Logout("p1")

	if _, ok := r.Session("p1"); ok {
		t.Fatal("session should be gone after logout")
	}
	if len(r.LiveSessions()) != 0 {
		t.Fatalf("got %d live sessions, want 0", len(r.LiveSessions()))
	}
}

func TestWhoFallsBackToInMemoryWithoutRedis(t *testing.T) {
	r := New(nil)
	r.Login("p1", "Alice", session.New(), nil)
	r.Login("p2", "Bob", session.New(), nil)

	who := r.Who()
	if len(who) != 2 || who[0] != "Alice" || who[1] != "Bob" {
		t.Fatalf("got %v, want [Alice Bob] in login order", who)
	}
}

type fakeOnlineSet struct{ members []string }

func (f *fakeOnlineSet) Add(name string)    { f.members = append(f.members, name) }
func (f *fakeOnlineSet) Remove(name string) {
	for i, n := range f.members {
		if n == name {
			f.members = append(f.members[:i], f.members[i+1:]...)
			return
		}
	}
}
func (f *fakeOnlineSet) Members() []string { return f.members }

func TestWhoUsesOnlineSetWhenConfigured(t *testing.T) {
	online := &fakeOnlineSet{}
	r := New(online)
	r.Login("p1", "Alice", session.New(), nil)

	if got := r.Who(); len(got) != 1 || got[0] != "Alice" {
		t.Fatalf("got %v", got)
	}

	r.Logout("p1")
	if got := r.Who(); len(got) != 0 {
		t.Fatalf("got %v, want empty after logout", got)
	}
}

func TestRegisterAndLookupActiveEntity(t *testing.T) {
	r := New(nil)
	m := worldmodel.NewMonsterPrototype(worldmodel.NewCatRef("test", 1), "a rat").Clone("rat-1")
	r.RegisterEntity(m)

	got, ok := r.Entity("rat-1")
	if !ok || got.InstanceID() != "rat-1" {
		t.Fatalf("got %+v, ok=%v", got, ok)
	}
	if len(r.ActiveEntities()) != 1 {
		t.Fatalf("got %d active entities, want 1", len(r.ActiveEntities()))
	}
}

func TestUnregisterEntityRemovesIt(t *testing.T) {
	r := New(nil)
	m := worldmodel.NewMonsterPrototype(worldmodel.NewCatRef("test", 1), "a rat").Clone("rat-1")
	r.RegisterEntity(m)
	r.UnregisterEntity("rat-1")

	if _, ok := r.Entity("rat-1"); ok {
		t.Fatal("entity should be gone after unregister")
	}
}

func TestActiveEntitiesPreservesRegistrationOrder(t *testing.T) {
	r := New(nil)
	a := worldmodel.NewMonsterPrototype(worldmodel.NewCatRef("test", 1), "a rat").Clone("rat-1")
	b := worldmodel.NewMonsterPrototype(worldmodel.NewCatRef("test", 2), "a bat").Clone("bat-1")
	r.RegisterEntity(a)
	r.RegisterEntity(b)

	order := r.ActiveEntities()
	if len(order) != 2 || order[0].InstanceID() != "rat-1" || order[1].InstanceID() != "bat-1" {
		t.Fatalf("got %v", order)
	}
}
