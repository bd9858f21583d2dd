package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mudengine/internal/mudcode"
	"mudengine/internal/worldmodel"
)

// Account is a persisted player login, separate from worldmodel.Player:
// this is the credential/profile record; Player is the live in-world
// character it authenticates into.
type Account struct {
	ID           string
	Name         string
	PasswordHash string
	MFASecret    string
	MFAEnabled   bool
	IsBuilder    bool
	IsAdmin      bool
	BoundRoom    worldmodel.CatRef
	CreatedAt    time.Time
	LastLogin    sql.NullTime
	LastLogout   sql.NullTime
}

// CreateAccount hashes password with bcrypt and inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, name, password string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, mudcode.New(mudcode.Fatal, err)
	}

	acct := &Account{
		ID:           uuid.New().String(),
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO accounts (id, name, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`), acct.ID, acct.Name, acct.PasswordHash, acct.CreatedAt)
	if err != nil {
		return nil, mudcode.New(mudcode.Fatal, err)
	}
	return acct, nil
}

// FindByName loads the account named name, or a mudcode.NotFound error if
// no such account exists.
func (s *Store) FindByName(ctx context.Context, name string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, password_hash, mfa_secret, mfa_enabled, is_builder,
		       is_admin, bound_area, bound_room_id, created_at, last_login, last_logout
		FROM accounts WHERE name = ?
	`), name)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	var area string
	var roomID int
	if err := row.Scan(&a.ID, &a.Name, &a.PasswordHash, &a.MFASecret, &a.MFAEnabled,
		&a.IsBuilder, &a.IsAdmin, &area, &roomID, &a.CreatedAt, &a.LastLogin, &a.LastLogout); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mudcode.NewWithMessage(mudcode.NotFound, "You don't see that here.", err)
		}
		return nil, mudcode.New(mudcode.Content, err)
	}
	a.BoundRoom = worldmodel.NewCatRef(area, roomID)
	return &a, nil
}

// Authenticate checks password against the stored hash for name,
// returning a Precondition error on any mismatch (account not found and
// wrong password are deliberately indistinguishable to the caller, so a
// rejected login never discloses which part was wrong).
func (s *Store) Authenticate(ctx context.Context, name, password string) (*Account, error) {
	acct, err := s.FindByName(ctx, name)
	if err != nil {
		return nil, mudcode.NewWithMessage(mudcode.Precondition, "Invalid name or password.", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, mudcode.NewWithMessage(mudcode.Precondition, "Invalid name or password.", err)
	}
	return acct, nil
}

// RecordLogin stamps last_login to now.
func (s *Store) RecordLogin(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`UPDATE accounts SET last_login = ? WHERE id = ?`), time.Now(), id)
	return err
}

// RecordLogout stamps last_logout to now.
func (s *Store) RecordLogout(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`UPDATE accounts SET last_logout = ? WHERE id = ?`), time.Now(), id)
	return err
}

// SetBoundRoom persists the player's home room reference.
func (s *Store) SetBoundRoom(ctx context.Context, id string, ref worldmodel.CatRef) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE accounts SET bound_area = ?, bound_room_id = ? WHERE id = ?
	`), ref.Area, ref.ID, id)
	return err
}
