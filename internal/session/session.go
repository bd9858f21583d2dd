package session

import (
	"context"
	"strings"
	"sync"

	"mudengine/internal/mudcode"
)

// defaultMaxInputBuf is the input buffer's hard cap (spec.md §4.2): a
// session that exceeds it without completing a line is a protocol
// violation, not a slow client.
const defaultMaxInputBuf = 8192

// defaultHighWaterMark caps the kernel-bound output buffer before a
// session is marked backpressured (spec.md §4.2's output pipeline).
const defaultHighWaterMark = 64 * 1024

// Options records the negotiated telnet capabilities for a session.
type Options struct {
	CompressOn bool
	MXPOn      bool
	ColorOn    bool
	WrapWidth  int // -1 disables wrapping
	TermType   string
	Charset    string
	NAWSWidth  int
	NAWSHeight int
}

// Session is one connection's full protocol state: telnet negotiation,
// input line framing, output staging/rendering, and the login FSM
// (spec.md §4.2, C2). It implements worldmodel.SessionLink.
type Session struct {
	mu sync.Mutex

	telnet      *telnetFSM
	pendingLine []byte
	maxInputBuf int
	lines       []string

	opts Options

	out           outputPipeline
	highWaterMark int
	backpressured bool

	login *LoginFSM

	disconnected bool
	closeReason  string

	// msdpVars holds the last-seen value of each MSDP variable the client
	// has pushed (spec.md §4.2: "a subset of variables is sent on change").
	msdpVars map[string]string

	// negotiationOut accumulates raw telnet reply bytes the owner must
	// write to the socket ahead of (never through) the compression stream.
	negotiationOut []byte
}

// New constructs a Session ready to negotiate telnet options and begin the
// login FSM.
func New() *Session {
	s := &Session{
		maxInputBuf:   defaultMaxInputBuf,
		highWaterMark: defaultHighWaterMark,
		opts:          Options{WrapWidth: 80},
	}
	s.telnet = &telnetFSM{onOption: s.handleOption, onSub: s.handleSub}
	s.login = NewLoginFSM()
	s.msdpVars = make(map[string]string)
	return s
}

// Disconnected implements worldmodel.SessionLink.
func (s *Session) Disconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnected
}

// Close marks the session disconnected with reason, the terminal state a
// protocol violation or I/O failure transitions to.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnected = true
	s.closeReason = reason
}

// CloseReason returns the reason passed to Close, or "" if still open.
func (s *Session) CloseReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeReason
}

// Feed processes newly-read raw bytes: telnet sequences are stripped and
// fed to the negotiation FSM in place; remaining bytes accumulate until a
// CR, LF, or CRLF terminator completes a line (spec.md §4.2 input
// pipeline). Exceeding the input buffer's hard cap closes the session with
// a protocol-violation reason.
func (s *Session) Feed(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range data {
		plain, ok := s.telnet.feed(b)
		if !ok {
			continue
		}
		if plain == '\n' {
			s.completeLineLocked()
			continue
		}
		if plain == '\r' {
			// CR is always a terminator; a following LF (CRLF) is absorbed
			// because it immediately re-triggers this branch on an empty
			// pendingLine, which is a harmless no-op complete.
			s.completeLineLocked()
			continue
		}
		s.pendingLine = append(s.pendingLine, plain)
		if len(s.pendingLine) > s.maxInputBuf {
			s.disconnected = true
			s.closeReason = "input buffer exceeded"
			return mudcode.NewWithMessage(mudcode.Protocol, "input buffer exceeded", nil)
		}
	}
	return nil
}

func (s *Session) completeLineLocked() {
	if len(s.pendingLine) == 0 {
		return
	}
	s.lines = append(s.lines, string(s.pendingLine))
	s.pendingLine = s.pendingLine[:0]
}

// NextLine pops the oldest pending input line, the delivery C6 drains at
// most once per tick per session (spec.md §4.2: "Line delivery").
func (s *Session) NextLine() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return "", false
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, true
}

// PendingLines reports how many complete input lines are queued.
func (s *Session) PendingLines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// TakeNegotiationBytes returns and clears any telnet reply bytes the
// session has queued in response to client negotiation — these must reach
// the socket ahead of (and never through) the compression stream.
func (s *Session) TakeNegotiationBytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.negotiationOut
	s.negotiationOut = nil
	return out
}

// OfferCompress queues the server's unsolicited "WILL COMPRESS2" offer
// (spec.md §4.2: "Server offers WILL; on DO, the session wraps its output
// path in a compression stream").
func (s *Session) OfferCompress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.negotiationOut = append(s.negotiationOut, negotiationReply(telWILL, optCOMPRESS2)...)
}

// OfferMXP queues the server's unsolicited "WILL MXP" offer.
func (s *Session) OfferMXP() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.negotiationOut = append(s.negotiationOut, negotiationReply(telWILL, optMXP)...)
}

func (s *Session) handleOption(verb, opt byte) {
	switch opt {
	case optCOMPRESS2:
		switch verb {
		case telDO:
			s.opts.CompressOn = true
			s.out.enableCompression()
		case telDONT:
			s.opts.CompressOn = false
			s.out.disableCompression()
		}
	case optMXP:
		switch verb {
		case telDO:
			s.opts.MXPOn = true
		case telDONT:
			s.opts.MXPOn = false
		}
	case optTTYPE, optNAWS, optCHARSET, optEOR, optMSDP:
		if verb == telWILL {
			s.negotiationOut = append(s.negotiationOut, negotiationReply(telDO, opt)...)
		} else if verb == telWONT {
			s.negotiationOut = append(s.negotiationOut, negotiationReply(telDONT, opt)...)
		}
	default:
		if verb == telWILL {
			s.negotiationOut = append(s.negotiationOut, negotiationReply(telDONT, opt)...)
		} else if verb == telDO {
			s.negotiationOut = append(s.negotiationOut, negotiationReply(telWONT, opt)...)
		}
	}
}

func (s *Session) handleSub(opt byte, payload []byte) {
	switch opt {
	case optNAWS:
		if len(payload) >= 4 {
			s.opts.NAWSWidth = int(payload[0])<<8 | int(payload[1])
			s.opts.NAWSHeight = int(payload[2])<<8 | int(payload[3])
			s.opts.WrapWidth = s.opts.NAWSWidth
		}
	case optTTYPE:
		if len(payload) > 1 && payload[0] == 0 {
			s.opts.TermType = string(payload[1:])
		}
	case optCHARSET:
		if len(payload) > 1 {
			s.opts.Charset = strings.TrimSpace(string(payload[1:]))
		}
	case optMSDP:
		applyMSDP(payload, s.msdpVars)
	}
}

// MSDPVar returns the last value the client pushed for name, and whether
// it has ever been set.
func (s *Session) MSDPVar(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.msdpVars[name]
	return v, ok
}

// BeginLogin starts the login FSM and returns its first prompt.
func (s *Session) BeginLogin(auth Authenticator, sitePassword string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login.Begin(auth, sitePassword)
}

// HandleLogin advances the login FSM on one input line.
func (s *Session) HandleLogin(ctx context.Context, line string) (reply string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login.Handle(ctx, line)
}

// LoginState returns the login FSM's current state.
func (s *Session) LoginState() LoginState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login.State()
}

// EnterWorld transitions the login FSM from MOTD to IN_WORLD.
func (s *Session) EnterWorld() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login.EnterWorld()
}

// AccountID returns the authenticated account id, valid once LoginState is
// StateMOTD or StateInWorld.
func (s *Session) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login.AccountID()
}

// Name returns the name entered at ASK_NAME, valid from StateAskPassword
// onward.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login.Name()
}
