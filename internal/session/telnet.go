// Package session implements C2: per-connection protocol state (telnet
// negotiation, MCCP, MXP, MSDP), the login FSM, and the output rendering
// pipeline, per spec.md §4.2. It is grounded on the teacher's
// cmd/server/main.go Client/AuthState shape (cmd/server/main.go in
// _examples/1kaius1-MUD-Engine), generalized from a WebSocket-only,
// telnet-free client into the full telnet-aware session the spec requires.
package session

// Telnet protocol bytes (RFC 854) and the option codes this core
// negotiates (RFC 1091 TTYPE, RFC 1073 NAWS, RFC 2066 CHARSET, RFC 885 EOR,
// MCCP2, MXP, MSDP).
const (
	telIAC  byte = 255
	telDONT byte = 254
	telDO   byte = 253
	telWONT byte = 252
	telWILL byte = 251
	telSB   byte = 250
	telSE   byte = 240

	optECHO      byte = 1
	optSGA       byte = 3
	optTTYPE     byte = 24
	optEOR       byte = 25
	optNAWS      byte = 31
	optCHARSET   byte = 42
	optMSDP      byte = 69
	optCOMPRESS2 byte = 86
	optMXP       byte = 91
)

// telnetState is the negotiation FSM's state (spec.md §4.2: "STREAM -> IAC
// -> {WILL,WONT,DO,DONT,SB}").
type telnetState int

const (
	telStateStream telnetState = iota
	telStateIAC
	telStateCommand // saw IAC + WILL/WONT/DO/DONT, waiting for the option byte
	telStateSub     // inside a subnegotiation, accumulating until IAC SE
	telStateSubIAC  // inside a subnegotiation, just saw IAC
)

// telnetFSM decodes a raw input stream into negotiation events and plain
// bytes, per spec.md §4.2's input pipeline: "Telnet sequences are consumed
// in place and fed to the negotiation FSM; bytes outside telnet sequences
// accumulate until CR, LF, or CRLF".
type telnetFSM struct {
	state    telnetState
	verb     byte // WILL/WONT/DO/DONT pending its option byte
	subOpt   byte
	subBuf   []byte
	onOption func(verb, opt byte)
	onSub    func(opt byte, payload []byte)
}

// feed decodes one byte of raw input. It returns (b, true) when b is a
// plain data byte the caller should append to the line-accumulation
// buffer, or (0, false) when the byte was consumed by the negotiation FSM.
func (f *telnetFSM) feed(b byte) (byte, bool) {
	switch f.state {
	case telStateStream:
		if b == telIAC {
			f.state = telStateIAC
			return 0, false
		}
		return b, true

	case telStateIAC:
		switch b {
		case telWILL, telWONT, telDO, telDONT:
			f.verb = b
			f.state = telStateCommand
		case telSB:
			f.subBuf = f.subBuf[:0]
			f.state = telStateSub
		case telIAC:
			// Escaped 0xFF data byte.
			f.state = telStateStream
			return telIAC, true
		default:
			// GA or other bare command; nothing further to do.
			f.state = telStateStream
		}
		return 0, false

	case telStateCommand:
		f.state = telStateStream
		if f.onOption != nil {
			f.onOption(f.verb, b)
		}
		return 0, false

	case telStateSub:
		if b == telIAC {
			f.state = telStateSubIAC
			return 0, false
		}
		f.subBuf = append(f.subBuf, b)
		return 0, false

	case telStateSubIAC:
		if b == telSE {
			f.state = telStateStream
			if f.onSub != nil {
				opt := byte(0)
				if len(f.subBuf) > 0 {
					opt = f.subBuf[0]
					f.onSub(opt, f.subBuf[1:])
				}
			}
			return 0, false
		}
		// Escaped IAC inside subnegotiation payload.
		f.subBuf = append(f.subBuf, b)
		f.state = telStateSub
		return 0, false
	}
	return 0, false
}

// negotiationReply returns the byte sequence a server offering opt via
// verb (WILL/DO) writes, or the acknowledging counter-offer when replying
// to a client-initiated verb.
func negotiationReply(verb, opt byte) []byte {
	return []byte{telIAC, verb, opt}
}
