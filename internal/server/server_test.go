package server

import (
	"context"
	"testing"

	"mudengine/internal/accounts"
	"mudengine/internal/cache"
	"mudengine/internal/clock"
	"mudengine/internal/registry"
	"mudengine/internal/worker"
	"mudengine/internal/worldmodel"
)

// fakePlayerStore is an in-memory playerStore double, so finalizeLogin can
// be exercised without a real accounts.Store/SQL driver.
type fakePlayerStore struct {
	byName  map[string]*accounts.Account
	logins  int
	logouts int
}

func newFakePlayerStore(accts ...*accounts.Account) *fakePlayerStore {
	s := &fakePlayerStore{byName: make(map[string]*accounts.Account)}
	for _, a := range accts {
		s.byName[a.Name] = a
	}
	return s
}

func (s *fakePlayerStore) Authenticate(ctx context.Context, name, password string) (*accounts.Account, error) {
	return s.byName[name], nil
}

func (s *fakePlayerStore) VerifyMFA(ctx context.Context, accountID, code string) (bool, error) {
	return true, nil
}

func (s *fakePlayerStore) FindByName(ctx context.Context, name string) (*accounts.Account, error) {
	acct, ok := s.byName[name]
	if !ok {
		return nil, errNotFound
	}
	return acct, nil
}

func (s *fakePlayerStore) RecordLogin(ctx context.Context, id string) error {
	s.logins++
	return nil
}

func (s *fakePlayerStore) RecordLogout(ctx context.Context, id string) error {
	s.logouts++
	return nil
}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

var errNotFound = notFoundError{}

func newTestServer(accts ...*accounts.Account) (*Server, *fakePlayerStore) {
	store := newFakePlayerStore(accts...)
	rooms := cache.New[*worldmodel.Room](8, func(*worldmodel.Room) bool { return true }, nil, nil)
	reg := registry.New(nil)
	deps := Deps{
		Rooms:     rooms,
		Loader:    fakeLoader{},
		Registry:  reg,
		Accounts:  store,
		StartRoom: worldmodel.NewCatRef("mid", 1),
	}
	return New(deps), store
}

type fakeLoader struct{}

func (fakeLoader) LoadRoom(ref worldmodel.CatRef) (*worldmodel.Room, error) {
	room := worldmodel.NewUniqueRoom(ref)
	room.Title = "Starting Room"
	room.Description = "Where every new arrival appears."
	return room, nil
}

func (fakeLoader) LoadMonster(ref worldmodel.CatRef) (*worldmodel.Monster, error) {
	return worldmodel.NewMonsterPrototype(ref, "a rat"), nil
}

func (fakeLoader) LoadObject(ref worldmodel.CatRef) (*worldmodel.Object, error) { return nil, nil }

func (fakeLoader) SaveRoom(room *worldmodel.Room) error { return nil }

func TestFinalizeLoginAddsPlayerToStartRoomAndRegistry(t *testing.T) {
	acct := &accounts.Account{ID: "acct-1", Name: "Alice"}
	srv, store := newTestServer(acct)

	tr := &fakeTransport{}
	c := newConnection("c1", tr, clock.System{}, make(chan connEvent, 4))
	c.session.BeginLogin(newAccountAuth(store), "")
	// Drive the login FSM to MOTD so finalizeLogin has a name to resolve.
	_, _ = c.session.HandleLogin(context.Background(), "Alice")
	_, _ = c.session.HandleLogin(context.Background(), "wrong-password-but-store-ignores-it")

	srv.finalizeLogin(context.Background(), c)

	if c.playerID != "acct-1" {
		t.Fatalf("playerID = %q, want acct-1", c.playerID)
	}
	ls, ok := srv.deps.Registry.Session("acct-1")
	if !ok || ls.Player == nil {
		t.Fatal("expected registry to have a live session for acct-1")
	}
	room, ok := ls.Player.Parent().(*worldmodel.Room)
	if !ok || room.Title != "Starting Room" {
		t.Fatalf("player parent = %v, want the starting room", ls.Player.Parent())
	}
	if store.logins != 1 {
		t.Fatalf("logins = %d, want 1", store.logins)
	}
}

// objectsLoader is a fakeLoader that also hands back a room naming one
// starting object, so loadRoom's object-cache resolution path is
// exercised independent of account/session plumbing.
type objectsLoader struct{ fakeLoader }

func (objectsLoader) LoadRoom(ref worldmodel.CatRef) (*worldmodel.Room, error) {
	room := worldmodel.NewUniqueRoom(ref)
	room.Title = "The Armory"
	room.StartingObjects = []worldmodel.CatRef{worldmodel.NewCatRef("mid", 40)}
	return room, nil
}

func (objectsLoader) LoadObject(ref worldmodel.CatRef) (*worldmodel.Object, error) {
	return worldmodel.NewObjectPrototype(ref, "a rusty sword"), nil
}

func TestLoadRoomResolvesStartingObjectsThroughObjectCache(t *testing.T) {
	objects := cache.New[*worldmodel.Object](8, func(*worldmodel.Object) bool { return true }, nil, nil)
	srv := New(Deps{
		Loader:  objectsLoader{},
		Objects: objects,
	})

	room, err := srv.loadRoom(worldmodel.NewCatRef("mid", 1))
	if err != nil {
		t.Fatalf("loadRoom error: %v", err)
	}
	if room.Objects.Len() != 1 {
		t.Fatalf("room.Objects.Len() = %d, want 1", room.Objects.Len())
	}

	// The prototype should now be cached, so a second Fetch for the same
	// ref must not call its load func again.
	if _, err := objects.Fetch(worldmodel.NewCatRef("mid", 40).String(), func() (*worldmodel.Object, error) {
		t.Fatal("expected object prototype to already be cached, load func should not run")
		return nil, nil
	}); err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
}

func TestOnClosedRemovesPlayerFromRoomAndRegistry(t *testing.T) {
	acct := &accounts.Account{ID: "acct-2", Name: "Bob"}
	srv, store := newTestServer(acct)

	tr := &fakeTransport{}
	c := newConnection("c2", tr, clock.System{}, make(chan connEvent, 4))
	c.session.BeginLogin(newAccountAuth(store), "")
	_, _ = c.session.HandleLogin(context.Background(), "Bob")
	_, _ = c.session.HandleLogin(context.Background(), "whatever")
	srv.finalizeLogin(context.Background(), c)

	srv.mu.Lock()
	srv.conns[c.id] = c
	srv.mu.Unlock()

	srv.onClosed(c)

	if _, ok := srv.deps.Registry.Session("acct-2"); ok {
		t.Fatal("expected registry session to be removed after onClosed")
	}
	if store.logouts != 1 {
		t.Fatalf("logouts = %d, want 1", store.logouts)
	}
	srv.mu.Lock()
	_, stillIndexed := srv.connsByPlayer["acct-2"]
	srv.mu.Unlock()
	if stillIndexed {
		t.Fatal("expected connsByPlayer entry removed after onClosed")
	}
}

func TestDeliverWorkerResultRoutesToRequestingPlayerConnection(t *testing.T) {
	srv, _ := newTestServer()
	tr := &fakeTransport{}
	c := newConnection("c3", tr, clock.System{}, make(chan connEvent, 4))
	c.playerID = "acct-3"

	srv.mu.Lock()
	srv.connsByPlayer["acct-3"] = c
	srv.mu.Unlock()

	srv.deliverWorkerResult(worker.Result{Kind: worker.Print, Requester: "acct-3", Output: []byte("area1.xml\r\n")})

	out := c.session.Flush()
	if len(out) == 0 {
		t.Fatal("expected flushed output after delivering a worker result")
	}
}

func TestDeliverWorkerResultIgnoresUnknownRequester(t *testing.T) {
	srv, _ := newTestServer()
	// No connection registered for "ghost" — delivering must not panic.
	srv.deliverWorkerResult(worker.Result{Kind: worker.Print, Requester: "ghost", Output: []byte("x")})
}
