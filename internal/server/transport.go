package server

import (
	"net"

	"github.com/gorilla/websocket"
)

// Transport abstracts the two acceptors C3 runs — a raw telnet TCP socket
// and a WebSocket bridge connection — behind one byte-oriented interface,
// so connection's read/write pumps don't care which one they're driving.
// Grounded on the teacher's *websocket.Conn-only Client; telnetTransport
// generalizes the same pump shape onto a plain net.Conn.
type Transport interface {
	// ReadChunk blocks until at least one byte is available and returns
	// it, or returns an error (including io.EOF) on close/failure.
	ReadChunk() ([]byte, error)
	// WriteChunk writes p as one unit — one TCP write, or one WebSocket
	// text message.
	WriteChunk(p []byte) error
	Close() error
	RemoteAddr() string
}

// telnetTransport wraps a raw net.Conn for the telnet acceptor.
type telnetTransport struct {
	conn net.Conn
	buf  []byte
}

func newTelnetTransport(conn net.Conn) *telnetTransport {
	return &telnetTransport{conn: conn, buf: make([]byte, 4096)}
}

func (t *telnetTransport) ReadChunk() ([]byte, error) {
	n, err := t.conn.Read(t.buf)
	if n > 0 {
		out := make([]byte, n)
		copy(out, t.buf[:n])
		// Deliver the bytes read even alongside an error (e.g. EOF on the
		// same read); the next ReadChunk call will report the error again.
		return out, nil
	}
	return nil, err
}

func (t *telnetTransport) WriteChunk(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

func (t *telnetTransport) Close() error { return t.conn.Close() }

func (t *telnetTransport) RemoteAddr() string { return t.conn.RemoteAddr().String() }

// wsTransport wraps a *websocket.Conn for the WebSocket bridge acceptor
// (SPEC_FULL.md's domain-stack wiring for gorilla/websocket), generalizing
// the teacher's Client.conn directly.
type wsTransport struct {
	conn *websocket.Conn
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

func (w *wsTransport) ReadChunk() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	return data, err
}

func (w *wsTransport) WriteChunk(p []byte) error {
	return w.conn.WriteMessage(websocket.TextMessage, p)
}

func (w *wsTransport) Close() error { return w.conn.Close() }

func (w *wsTransport) RemoteAddr() string { return w.conn.RemoteAddr().String() }
