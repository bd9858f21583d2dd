// Package accounts is the backing store for player-account persistence:
// login credentials, MFA enrollment, and the ban rule table — the
// supplemented features original_source/bans.cpp and the login FSM need
// a durable home for (spec.md §4.7, SPEC_FULL.md supplemented features).
package accounts

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"mudengine/internal/config"
)

// Store wraps the SQL connection backing accounts and ban rules. It is
// grounded in the teacher's internal/database package (same sql.Open +
// inline-schema shape), extended with an accounts/bans schema rather than
// the teacher's rooms/zones schema — room persistence now lives in
// internal/content.
type Store struct {
	db     *sql.DB
	dbType string
}

// Open connects to cfg's configured database and ensures the accounts
// schema exists.
func Open(cfg *config.Config) (*Store, error) {
	var db *sql.DB
	var err error

	switch cfg.DBType {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = sql.Open("postgres", cfg.GetConnectionString())
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE: %s", cfg.DBType)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxConnections)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, dbType: cfg.DBType}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return s, nil
}

func openSQLite(cfg *config.Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.DBName); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", cfg.DBName)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id              TEXT PRIMARY KEY,
	name            TEXT UNIQUE NOT NULL,
	password_hash   TEXT NOT NULL,
	mfa_secret      TEXT DEFAULT '',
	mfa_enabled     BOOLEAN DEFAULT 0,
	is_builder      BOOLEAN DEFAULT 0,
	is_admin        BOOLEAN DEFAULT 0,
	bound_area      TEXT DEFAULT '',
	bound_room_id   INTEGER DEFAULT 0,
	created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	last_login      TIMESTAMP,
	last_logout     TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accounts_name ON accounts(name);

CREATE TABLE IF NOT EXISTS bans (
	site       TEXT PRIMARY KEY,
	is_prefix  BOOLEAN DEFAULT 0,
	is_suffix  BOOLEAN DEFAULT 0,
	password   TEXT DEFAULT '',
	reason     TEXT DEFAULT '',
	set_by     TEXT DEFAULT '',
	set_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	expires_at TIMESTAMP
);
`

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// rebind rewrites a query written with SQLite/MySQL-style "?" placeholders
// into Postgres's "$1", "$2", ... form when the store is backed by
// Postgres, so every query in this package can be written once.
func (s *Store) rebind(query string) string {
	if s.dbType != "postgres" {
		return query
	}
	var b []byte
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b = append(b, '$')
			b = append(b, []byte(fmt.Sprintf("%d", n))...)
			continue
		}
		b = append(b, query[i])
	}
	return string(b)
}
