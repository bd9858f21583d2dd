package server

import (
	"context"

	"mudengine/internal/accounts"
	"mudengine/internal/session"
)

// accountStore is the subset of internal/accounts.Store the login FSM's
// Authenticator adapter needs, kept local so this adapter is testable
// without a real database (same idiom as banRuleStore).
type accountStore interface {
	Authenticate(ctx context.Context, name, password string) (*accounts.Account, error)
	VerifyMFA(ctx context.Context, accountID, code string) (bool, error)
}

// accountAuth adapts accountStore to session.Authenticator, translating
// *accounts.Account into the minimal session.AuthResult so
// internal/session never imports internal/accounts (and therefore never
// imports its SQL driver packages).
type accountAuth struct {
	store accountStore
}

func newAccountAuth(store accountStore) *accountAuth {
	return &accountAuth{store: store}
}

func (a *accountAuth) Authenticate(ctx context.Context, name, password string) (session.AuthResult, error) {
	acct, err := a.store.Authenticate(ctx, name, password)
	if err != nil {
		return session.AuthResult{}, err
	}
	return session.AuthResult{AccountID: acct.ID, MFAEnabled: acct.MFAEnabled}, nil
}

func (a *accountAuth) VerifyMFA(ctx context.Context, accountID, code string) (bool, error) {
	return a.store.VerifyMFA(ctx, accountID, code)
}
