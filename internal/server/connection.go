package server

import (
	"time"

	"mudengine/internal/clock"
	"mudengine/internal/session"
)

// pingInterval/writeWait mirror the teacher's writePump keepalive timings
// (cmd/server/main.go: 54s ticker, 10s write deadline). The keepalive is an
// empty WriteChunk: an empty text message on WebSocket, a zero-length write
// on telnet; no WebSocket ping frame is sent.
const (
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// eventKind tags what a connection's pump goroutines reported to the
// single server loop.
type eventKind int

const (
	eventLineReady eventKind = iota
	eventClosed
)

type connEvent struct {
	conn *connection
	kind eventKind
}

// connection is one accepted client: its Transport (telnet or WebSocket),
// protocol Session, and the channel its own goroutines use to hand off to
// the central loop. Per CONCURRENCY MODEL in SPEC_FULL.md, readPump does
// *only* I/O — it calls Session.Feed (internally locked) and then reports
// a lineReady event; it never touches internal/registry, internal/cache,
// or a command handler itself.
type connection struct {
	id        string
	transport Transport
	session   *session.Session
	cmdTimer  *clock.Timer

	playerID string // set once logged in

	send   chan []byte
	events chan<- connEvent
	done   chan struct{}
}

func newConnection(id string, t Transport, c clock.Clock, events chan<- connEvent) *connection {
	return &connection{
		id:        id,
		transport: t,
		session:   session.New(),
		cmdTimer:  clock.NewTimer(c),
		send:      make(chan []byte, 256),
		events:    events,
		done:      make(chan struct{}),
	}
}

// readPump reads raw bytes until the transport closes or errors, feeding
// each chunk to the session and reporting one lineReady event whenever a
// complete line becomes available, plus a terminal closed event.
func (c *connection) readPump() {
	defer func() {
		c.events <- connEvent{conn: c, kind: eventClosed}
		close(c.done)
	}()

	for {
		chunk, err := c.transport.ReadChunk()
		if len(chunk) > 0 {
			if feedErr := c.session.Feed(chunk); feedErr != nil {
				return
			}
			if c.session.PendingLines() > 0 {
				c.events <- connEvent{conn: c, kind: eventLineReady}
			}
		}
		if err != nil {
			return
		}
		if c.session.Disconnected() {
			return
		}
	}
}

// writePump drains send and writes each payload to the transport, plus a
// periodic keepalive ping — generalized from the teacher's
// Client.writePump, adapted to the Transport seam instead of a
// *websocket.Conn directly.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.transport.WriteChunk(payload); err != nil {
				return
			}
		case <-ticker.C:
			// Best-effort keepalive; a telnet Transport's WriteChunk of an
			// empty payload is a harmless no-op write.
			_ = c.transport.WriteChunk(nil)
		case <-c.done:
			return
		}
	}
}

// queue non-blockingly enqueues payload for writePump, dropping it if the
// connection's send buffer is already full — a wedged client must not
// stall the pump or the accept loop.
func (c *connection) queue(payload []byte) {
	if len(payload) == 0 {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
