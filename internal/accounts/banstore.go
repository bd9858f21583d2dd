package accounts

import (
	"context"
	"database/sql"
	"time"

	"mudengine/internal/ban"
)

// ListBanRules loads the full ban rule table, used at boot and after any
// admin *ban/*unban command to rebuild internal/ban's Gate.
func (s *Store) ListBanRules(ctx context.Context) ([]ban.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT site, is_prefix, is_suffix, password, reason, set_by, set_at, expires_at
		FROM bans
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []ban.Rule
	for rows.Next() {
		var r ban.Rule
		var expires sql.NullTime
		if err := rows.Scan(&r.Site, &r.IsPrefix, &r.IsSuffix, &r.Password, &r.Reason, &r.By, &r.SetAt, &expires); err != nil {
			return nil, err
		}
		if expires.Valid {
			r.ExpiresAt = expires.Time
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// InsertRule adds or replaces a ban rule, the persistence side of the
// supplemented *ban admin command.
func (s *Store) InsertRule(ctx context.Context, r ban.Rule) error {
	var expires sql.NullTime
	if !r.ExpiresAt.IsZero() {
		expires = sql.NullTime{Time: r.ExpiresAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO bans (site, is_prefix, is_suffix, password, reason, set_by, set_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(site) DO UPDATE SET
			is_prefix = excluded.is_prefix,
			is_suffix = excluded.is_suffix,
			password = excluded.password,
			reason = excluded.reason,
			set_by = excluded.set_by,
			set_at = excluded.set_at,
			expires_at = excluded.expires_at
	`), r.Site, r.IsPrefix, r.IsSuffix, r.Password, r.Reason, r.By, timeOrNow(r.SetAt), expires)
	return err
}

// DeleteRule implements ban.RuleStore, removing site's rule — called by
// the Gate when a rule is observed to have expired, and by the
// supplemented *unban admin command.
func (s *Store) DeleteRule(ctx context.Context, site string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM bans WHERE site = ?`), site)
	return err
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
