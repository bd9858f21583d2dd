package session

import "context"

// LoginState is the login FSM's state (spec.md §4.2: "CONNECTED ->
// ASK_NAME -> ASK_PASSWORD -> {MOTD -> IN_WORLD, REJECTED}"), generalized
// from the teacher's AuthState enum (cmd/server/main.go) with the
// supplemented ASK_MFA branch and a SITE_PASSWORD branch for bans carrying
// a password challenge (spec.md §4.7).
type LoginState int

const (
	StateConnected LoginState = iota
	StateSitePassword
	StateAskName
	StateAskPassword
	StateAskMFA
	StateMOTD
	StateInWorld
	StateRejected
)

// maxLoginAttempts bounds password and MFA retries before disconnect,
// generalizing the teacher's hardcoded failedAttempts >= 3 check.
const maxLoginAttempts = 3

// AuthResult is the subset of an authenticated account the login FSM
// needs, kept independent of internal/accounts.Account so this package
// has no dependency on the accounts store or its SQL driver imports.
type AuthResult struct {
	AccountID  string
	MFAEnabled bool
}

// Authenticator is the credential check the login FSM calls out to;
// internal/accounts.Store satisfies it via a thin adapter at wiring time.
type Authenticator interface {
	Authenticate(ctx context.Context, name, password string) (AuthResult, error)
	VerifyMFA(ctx context.Context, accountID, code string) (bool, error)
}

// LoginFSM drives one session from connection to IN_WORLD or REJECTED.
type LoginFSM struct {
	state        LoginState
	sitePassword string
	name         string
	accountID    string
	attempts     int
	auth         Authenticator
}

// NewLoginFSM returns an FSM in state CONNECTED.
func NewLoginFSM() *LoginFSM {
	return &LoginFSM{state: StateConnected}
}

// State returns the FSM's current state.
func (f *LoginFSM) State() LoginState { return f.state }

// AccountID returns the authenticated account's id, valid once State() is
// StateInWorld or StateMOTD.
func (f *LoginFSM) AccountID() string { return f.accountID }

// Name returns the name entered at ASK_NAME.
func (f *LoginFSM) Name() string { return f.name }

// Begin starts the FSM using auth for credential checks, requiring
// sitePassword first if non-empty (the §4.7 password-challenge branch),
// and returns the first prompt to send.
func (f *LoginFSM) Begin(auth Authenticator, sitePassword string) string {
	f.auth = auth
	if sitePassword != "" {
		f.sitePassword = sitePassword
		f.state = StateSitePassword
		return "This site requires a password: "
	}
	f.state = StateAskName
	return "Login: "
}

// Handle advances the FSM on one complete input line, returning the next
// prompt (or banner) to send. ok is false once the FSM has reached
// StateRejected (the caller should close the connection after sending the
// returned message).
func (f *LoginFSM) Handle(ctx context.Context, line string) (reply string, ok bool) {
	switch f.state {
	case StateSitePassword:
		if line != f.sitePassword {
			f.attempts++
			if f.attempts >= maxLoginAttempts {
				f.state = StateRejected
				return "Too many failed attempts. Goodbye.\r\n", false
			}
			return "Incorrect. Password: ", true
		}
		f.attempts = 0
		f.state = StateAskName
		return "Login: ", true

	case StateAskName:
		if line == "" {
			return "Login cannot be empty.\r\nLogin: ", true
		}
		f.name = line
		f.state = StateAskPassword
		return "Password: \x1b[8m", true

	case StateAskPassword:
		result, err := f.auth.Authenticate(ctx, f.name, line)
		if err != nil {
			f.attempts++
			if f.attempts >= maxLoginAttempts {
				f.state = StateRejected
				return "\x1b[28mToo many failed attempts. Goodbye.\r\n", false
			}
			return "\x1b[28mInvalid name or password.\r\nPassword: \x1b[8m", true
		}
		f.accountID = result.AccountID
		f.attempts = 0
		if result.MFAEnabled {
			f.state = StateAskMFA
			return "\x1b[28mMFA code: ", true
		}
		f.state = StateMOTD
		return "", true

	case StateAskMFA:
		valid, err := f.auth.VerifyMFA(ctx, f.accountID, line)
		if err != nil || !valid {
			f.attempts++
			if f.attempts >= maxLoginAttempts {
				f.state = StateRejected
				return "Too many failed attempts. Goodbye.\r\n", false
			}
			return "That code is not valid. MFA code: ", true
		}
		f.state = StateMOTD
		return "", true

	default:
		return "", true
	}
}

// EnterWorld transitions MOTD -> IN_WORLD once the MOTD has been shown.
func (f *LoginFSM) EnterWorld() {
	if f.state == StateMOTD {
		f.state = StateInWorld
	}
}
