package session

import (
	"context"
	"errors"
	"strings"
	"testing"
)

var errAuthFailed = errors.New("invalid credentials")

func TestFeedAssemblesLineOnLF(t *testing.T) {
	s := New()
	if err := s.Feed([]byte("look\n")); err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	line, ok := s.NextLine()
	if !ok || line != "look" {
		t.Fatalf("NextLine = %q, %v, want look, true", line, ok)
	}
}

func TestFeedAssemblesLineOnCRLF(t *testing.T) {
	s := New()
	if err := s.Feed([]byte("look\r\n")); err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	line, ok := s.NextLine()
	if !ok || line != "look" {
		t.Fatalf("NextLine = %q, %v, want look, true", line, ok)
	}
	if s.PendingLines() != 0 {
		t.Fatalf("PendingLines = %d, want 0 (CRLF must not yield two lines)", s.PendingLines())
	}
}

func TestFeedStripsTelnetNegotiationFromLineBytes(t *testing.T) {
	s := New()
	input := append([]byte("look"), telIAC, telDO, optCOMPRESS2)
	input = append(input, []byte(" room\n")...)
	if err := s.Feed(input); err != nil {
		t.Fatalf("Feed error: %v", err)
	}
	line, _ := s.NextLine()
	if line != "look room" {
		t.Fatalf("line = %q, want %q", line, "look room")
	}
	if !s.opts.CompressOn {
		t.Fatal("expected DO COMPRESS2 to enable compression")
	}
}

func TestFeedOverLongLineClosesSessionWithProtocolError(t *testing.T) {
	s := New()
	s.maxInputBuf = 4
	err := s.Feed([]byte("toolong"))
	if err == nil {
		t.Fatal("expected protocol error")
	}
	if !s.Disconnected() {
		t.Fatal("expected session to be marked disconnected")
	}
}

func TestOfferCompressQueuesWillBytes(t *testing.T) {
	s := New()
	s.OfferCompress()
	out := s.TakeNegotiationBytes()
	want := []byte{telIAC, telWILL, optCOMPRESS2}
	if string(out) != string(want) {
		t.Fatalf("negotiation bytes = %v, want %v", out, want)
	}
	if len(s.TakeNegotiationBytes()) != 0 {
		t.Fatal("TakeNegotiationBytes should clear the queue")
	}
}

func TestWriteIsRejectedWhileBackpressured(t *testing.T) {
	s := New()
	s.highWaterMark = 5
	if err := s.Write(strings.Repeat("x", 20)); err != nil {
		t.Fatalf("first Write should not be rejected: %v", err)
	}
	s.Flush()
	if !s.Backpressured() {
		t.Fatal("expected backpressure after exceeding high-water mark")
	}
	if err := s.Write("more"); err == nil {
		t.Fatal("expected Write to be rejected while backpressured")
	}
	s.ClearBackpressure()
	if err := s.Write("more"); err != nil {
		t.Fatalf("Write should succeed after ClearBackpressure: %v", err)
	}
}

type fakeAuth struct {
	accountID  string
	password   string
	mfaEnabled bool
	validCode  string
}

func (a fakeAuth) Authenticate(ctx context.Context, name, password string) (AuthResult, error) {
	if password != a.password {
		return AuthResult{}, errAuthFailed
	}
	return AuthResult{AccountID: a.accountID, MFAEnabled: a.mfaEnabled}, nil
}

func (a fakeAuth) VerifyMFA(ctx context.Context, accountID, code string) (bool, error) {
	return code == a.validCode, nil
}

func TestLoginFSMHappyPathReachesMOTD(t *testing.T) {
	s := New()
	auth := fakeAuth{accountID: "acct-1", password: "hunter2"}
	s.BeginLogin(auth, "")
	if s.LoginState() != StateAskName {
		t.Fatalf("state = %v, want StateAskName", s.LoginState())
	}
	s.HandleLogin(context.Background(), "Rodak")
	if s.LoginState() != StateAskPassword {
		t.Fatalf("state = %v, want StateAskPassword", s.LoginState())
	}
	s.HandleLogin(context.Background(), "hunter2")
	if s.LoginState() != StateMOTD {
		t.Fatalf("state = %v, want StateMOTD", s.LoginState())
	}
	if s.AccountID() != "acct-1" {
		t.Fatalf("AccountID = %q, want acct-1", s.AccountID())
	}
}

func TestLoginFSMRoutesThroughMFAWhenEnabled(t *testing.T) {
	s := New()
	auth := fakeAuth{accountID: "acct-1", password: "hunter2", mfaEnabled: true, validCode: "000000"}
	s.BeginLogin(auth, "")
	s.HandleLogin(context.Background(), "Rodak")
	s.HandleLogin(context.Background(), "hunter2")
	if s.LoginState() != StateAskMFA {
		t.Fatalf("state = %v, want StateAskMFA", s.LoginState())
	}
	s.HandleLogin(context.Background(), "000000")
	if s.LoginState() != StateMOTD {
		t.Fatalf("state = %v, want StateMOTD", s.LoginState())
	}
}

func TestLoginFSMDisconnectsAfterTooManyFailures(t *testing.T) {
	s := New()
	auth := fakeAuth{accountID: "acct-1", password: "hunter2"}
	s.BeginLogin(auth, "")
	s.HandleLogin(context.Background(), "Rodak")
	for i := 0; i < maxLoginAttempts; i++ {
		s.HandleLogin(context.Background(), "wrong")
	}
	if s.LoginState() != StateRejected {
		t.Fatalf("state = %v, want StateRejected", s.LoginState())
	}
}

func TestLoginFSMRequiresSitePasswordFirst(t *testing.T) {
	s := New()
	auth := fakeAuth{accountID: "acct-1", password: "hunter2"}
	s.BeginLogin(auth, "sitepass")
	if s.LoginState() != StateSitePassword {
		t.Fatalf("state = %v, want StateSitePassword", s.LoginState())
	}
	s.HandleLogin(context.Background(), "wrong")
	if s.LoginState() != StateSitePassword {
		t.Fatal("state should remain StateSitePassword on wrong site password")
	}
	s.HandleLogin(context.Background(), "sitepass")
	if s.LoginState() != StateAskName {
		t.Fatalf("state = %v, want StateAskName", s.LoginState())
	}
}
