// Package server implements C3: the connection acceptors (telnet and the
// WebSocket bridge) and the single cooperative event loop that wires every
// other package together, per spec.md §2/§5 and SPEC_FULL.md's CONCURRENCY
// MODEL section. It is grounded on the teacher's Server{clients, register,
// unregister, shutdown}/Run (cmd/server/main.go), generalized from a flat
// websocket-only client set into a dual telnet/WebSocket acceptor whose
// connection goroutines do only I/O and report events to this loop.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mudengine/internal/accounts"
	"mudengine/internal/ban"
	"mudengine/internal/cache"
	"mudengine/internal/clock"
	"mudengine/internal/command"
	"mudengine/internal/content"
	"mudengine/internal/mudcode"
	"mudengine/internal/registry"
	"mudengine/internal/scheduler"
	"mudengine/internal/session"
	"mudengine/internal/worker"
	"mudengine/internal/worldmodel"
)

// playerStore is the subset of internal/accounts.Store a newly-entered
// player's finalization step needs.
type playerStore interface {
	accountStore
	FindByName(ctx context.Context, name string) (*accounts.Account, error)
	RecordLogin(ctx context.Context, id string) error
	RecordLogout(ctx context.Context, id string) error
}

// Deps bundles everything the single event loop wires together. Every
// field is a package this repository already built standalone; Server's
// only job is to drive them from real connections in the right order.
type Deps struct {
	Clock     clock.Clock
	Rooms     *cache.Cache[*worldmodel.Room]
	Objects   *cache.Cache[*worldmodel.Object]
	Loader    content.Loader
	Registry  *registry.Registry
	Commands  *command.Registry
	Scheduler *scheduler.Scheduler
	Workers   *worker.Pool
	BanGate   *ban.Gate
	Accounts  playerStore
	Log       *logrus.Logger

	// StartRoom is where a freshly-created or bound-room-less player
	// enters the world (spec.md §6's default area convention).
	StartRoom worldmodel.CatRef
	// TickInterval drives the central loop's scheduler.Tick() cadence
	// independent of client activity, so autonomous jobs run even with
	// zero connected players.
	TickInterval time.Duration
}

// Server is C3: the acceptors plus the single loop goroutine.
type Server struct {
	deps Deps
	auth session.Authenticator

	mu           sync.Mutex
	conns        map[string]*connection
	connsByPlayer map[string]*connection

	events   chan connEvent
	register chan *connection
}

// New returns a Server ready to Serve telnet connections and/or expose
// WebSocketHandler, wired against deps.
func New(deps Deps) *Server {
	if deps.TickInterval <= 0 {
		deps.TickInterval = time.Second
	}
	return &Server{
		deps:          deps,
		auth:          newAccountAuth(deps.Accounts),
		conns:         make(map[string]*connection),
		connsByPlayer: make(map[string]*connection),
		events:        make(chan connEvent, 256),
		register:      make(chan *connection, 64),
	}
}

// Serve accepts telnet connections on addr until ctx is canceled. Each
// accepted connection is registered with the central loop and given its
// own read/write pump goroutines; Serve itself never touches session,
// registry, or command state.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				if s.deps.Log != nil {
					s.deps.Log.WithError(err).Warn("telnet accept failed")
				}
				continue
			}
		}
		s.accept(newTelnetTransport(conn))
	}
}

// wsUpgrader mirrors the teacher's permissive CheckOrigin for the
// reference web client; a production deployment behind a reverse proxy
// would tighten this.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler returns an http.HandlerFunc for the WebSocket bridge
// acceptor (spec.md SPEC_FULL.md: "also hosts the WebSocket bridge"),
// generalizing the teacher's handleWebSocket.
func (s *Server) WebSocketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			if s.deps.Log != nil {
				s.deps.Log.WithError(err).Warn("websocket upgrade failed")
			}
			return
		}
		s.accept(newWSTransport(conn))
	}
}

func (s *Server) accept(t Transport) {
	c := newConnection(uuid.NewString(), t, s.deps.Clock, s.events)
	s.register <- c
}

// Run is the single cooperative loop: it is the only goroutine that ever
// touches internal/registry, internal/cache, or a command handler (spec.md
// §5 invariant 5, generalized from the teacher's one-`select`-loop
// Server.Run). Blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.deps.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case c := <-s.register:
			s.onConnect(c)
		case ev := <-s.events:
			switch ev.kind {
			case eventLineReady:
				s.onLineReady(ctx, ev.conn)
			case eventClosed:
				s.onClosed(ev.conn)
			}
		case <-ticker.C:
			s.deps.Scheduler.Tick()
			s.drainWorkers()
		}
	}
}

func (s *Server) onConnect(c *connection) {
	host, _, err := net.SplitHostPort(c.transport.RemoteAddr())
	if err != nil {
		host = c.transport.RemoteAddr()
	}

	var sitePassword string
	if s.deps.BanGate != nil {
		decision, rule := s.deps.BanGate.Check(context.Background(), host, host)
		switch decision {
		case ban.Deny:
			_ = c.transport.WriteChunk([]byte("Your site has been banned from this server.\r\n"))
			_ = c.transport.Close()
			return
		case ban.PasswordChallenge:
			if rule != nil {
				sitePassword = rule.Password
			}
		}
	}

	c.session.OfferCompress()
	c.session.OfferMXP()
	prompt := c.session.BeginLogin(s.auth, sitePassword)

	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()

	go c.writePump()
	go c.readPump()

	c.queue(c.session.TakeNegotiationBytes())
	c.queue([]byte(prompt))
}

// onLineReady dispatches exactly one queued line per event (spec.md §4.2's
// "each complete input line is handed to C6 at most once per tick" and
// §5 ordering guarantee 2): draining every pending line here would let one
// chatty session's pasted lines all dispatch before another session's
// single queued line, breaking fairness across sessions. If more lines
// remain queued after this one, re-report a lineReady event so the next
// pass round-robins with whatever else is waiting on s.events.
func (s *Server) onLineReady(ctx context.Context, c *connection) {
	line, ok := c.session.NextLine()
	if !ok {
		return
	}

	if c.session.LoginState() != session.StateInWorld {
		s.handleLoginLine(ctx, c, line)
	} else {
		out, err := s.handleWorldLine(c, line)
		if err != nil {
			out = err.Error()
			var me *mudcode.Error
			if errors.As(err, &me) {
				out = me.UserMessage()
			}
		}
		if out != "" {
			_ = c.session.Write(out + "\r\n")
		}
		c.queue(c.session.TakeNegotiationBytes())
		c.queue(c.session.Flush())
	}

	if c.session.PendingLines() > 0 {
		go func() { s.events <- connEvent{conn: c, kind: eventLineReady} }()
	}
}

func (s *Server) handleLoginLine(ctx context.Context, c *connection, line string) {
	reply, ok := c.session.HandleLogin(ctx, line)
	if reply != "" {
		c.queue([]byte(reply + "\r\n"))
	}
	if !ok {
		_ = c.transport.Close()
		return
	}
	if c.session.LoginState() == session.StateMOTD {
		s.finalizeLogin(ctx, c)
	}
}

// loadRoom is the Rooms cache's miss path: it loads a room's permanent
// attributes and, for each StartingObjects ref the room file names,
// resolves the prototype through the object cache (C4, same Fetch-on-miss
// pattern as the wander job's monster spawns) and clones a fresh instance
// into the room. Runs on every cache miss (including a reload after the
// room was evicted), not on a cache hit.
func (s *Server) loadRoom(ref worldmodel.CatRef) (*worldmodel.Room, error) {
	room, err := s.deps.Loader.LoadRoom(ref)
	if err != nil {
		return nil, err
	}
	if s.deps.Objects == nil {
		return room, nil
	}
	for _, objRef := range room.StartingObjects {
		proto, err := s.deps.Objects.Fetch(objRef.String(), func() (*worldmodel.Object, error) {
			return s.deps.Loader.LoadObject(objRef)
		})
		if err != nil {
			if s.deps.Log != nil {
				s.deps.Log.WithError(err).WithField("object", objRef.String()).Warn("couldn't load starting object")
			}
			continue
		}
		obj := proto.Clone(objRef.String() + ":" + ref.String())
		room.Objects.Add(room, obj)
	}
	return room, nil
}

func (s *Server) finalizeLogin(ctx context.Context, c *connection) {
	name := c.session.Name()
	acct, err := s.deps.Accounts.FindByName(ctx, name)
	if err != nil {
		c.queue([]byte("A problem occurred loading your character. Goodbye.\r\n"))
		_ = c.transport.Close()
		return
	}

	startRef := s.deps.StartRoom
	if !acct.BoundRoom.IsZero() {
		startRef = acct.BoundRoom
	}
	room, err := s.deps.Rooms.Fetch(startRef.String(), func() (*worldmodel.Room, error) {
		return s.loadRoom(startRef)
	})
	if err != nil {
		c.queue([]byte("A problem occurred loading your starting room. Goodbye.\r\n"))
		_ = c.transport.Close()
		return
	}

	player := worldmodel.NewPlayer(acct.ID, acct.Name)
	player.SetSession(c.session)
	player.BoundRoom = startRef
	player.CurrentRoom = startRef
	if acct.IsAdmin || acct.IsBuilder {
		player.Flags["staff"] = true
	}
	room.Players.Add(room, player)

	c.playerID = acct.ID
	s.deps.Registry.Login(acct.ID, acct.Name, c.session, player)
	// Registering the room as an active entity is what lets the wander job
	// (internal/scheduler) find it again on the next primary tick without
	// re-walking the content cache.
	s.deps.Registry.RegisterEntity(room)
	_ = s.deps.Accounts.RecordLogin(ctx, acct.ID)

	s.mu.Lock()
	s.connsByPlayer[acct.ID] = c
	s.mu.Unlock()

	c.session.EnterWorld()
	c.queue([]byte("\r\n" + describeRoom(room) + "\r\n"))
}

func (s *Server) handleWorldLine(c *connection, line string) (string, error) {
	ls, ok := s.deps.Registry.Session(c.playerID)
	if !ok || ls.Player == nil {
		return "", nil
	}
	return command.Dispatch(s.deps.Commands, s.deps.Clock, c.cmdTimer, ls.Player, line)
}

func (s *Server) onClosed(c *connection) {
	s.mu.Lock()
	delete(s.conns, c.id)
	if c.playerID != "" {
		delete(s.connsByPlayer, c.playerID)
	}
	s.mu.Unlock()

	if c.playerID == "" {
		return
	}
	if ls, ok := s.deps.Registry.Session(c.playerID); ok {
		if room, ok := ls.Player.Parent().(*worldmodel.Room); ok {
			room.Players.Remove(ls.Player.InstanceID())
		}
		ls.Player.ClearSession()
	}
	s.deps.Registry.Logout(c.playerID)
	_ = s.deps.Accounts.RecordLogout(context.Background(), c.playerID)
}

func (s *Server) drainWorkers() {
	if s.deps.Workers == nil {
		return
	}
	for _, r := range s.deps.Workers.Drain() {
		s.deliverWorkerResult(r)
	}
}

func (s *Server) deliverWorkerResult(r worker.Result) {
	if r.Kind != worker.Print {
		return
	}
	s.mu.Lock()
	c, ok := s.connsByPlayer[r.Requester]
	s.mu.Unlock()
	if !ok {
		return
	}
	_ = c.session.Write(string(r.Output))
	c.queue(c.session.Flush())
}

// shutdown notifies every connected client and closes their transports,
// generalizing the teacher's Server.Shutdown "notify connected players"
// step (cmd/server/main.go's performGracefulShutdown, step 2/5).
func (s *Server) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		_ = c.transport.WriteChunk([]byte("\r\n\r\nServer is shutting down. Goodbye!\r\n"))
		_ = c.transport.Close()
	}
}
