package accounts

import (
	"bytes"
	"context"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"mudengine/internal/mudcode"
)

// EnrollMFA generates a new TOTP secret for accountID and returns both the
// provisioning URI (for manual entry) and a QR code PNG a client can
// render — the supplemented ASK_MFA login branch's enrollment step
// (SPEC_FULL.md supplemented features).
func (s *Store) EnrollMFA(ctx context.Context, accountID, accountName, issuer string) (uri string, qrPNG []byte, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", nil, mudcode.New(mudcode.Fatal, err)
	}

	qrImage, err := encodeQR(key)
	if err != nil {
		return "", nil, mudcode.New(mudcode.Fatal, err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`UPDATE accounts SET mfa_secret = ?, mfa_enabled = 0 WHERE id = ?`),
		key.Secret(), accountID)
	if err != nil {
		return "", nil, mudcode.New(mudcode.Fatal, err)
	}
	return key.String(), qrImage, nil
}

// ConfirmMFA validates code against accountID's pending secret and, on
// success, flips mfa_enabled on — required before the login FSM's
// ASK_MFA state starts being enforced for this account.
func (s *Store) ConfirmMFA(ctx context.Context, accountID, code string) error {
	acct, err := s.findByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !totp.Validate(code, acct.MFASecret) {
		return mudcode.NewWithMessage(mudcode.Precondition, "That code is not valid.", nil)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`UPDATE accounts SET mfa_enabled = 1 WHERE id = ?`), accountID)
	return err
}

// VerifyMFA checks code against the account's confirmed TOTP secret, used
// by the login FSM's ASK_MFA state on every authentication attempt.
func (s *Store) VerifyMFA(ctx context.Context, accountID, code string) (bool, error) {
	acct, err := s.findByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	if !acct.MFAEnabled {
		return true, nil
	}
	return totp.Validate(code, acct.MFASecret), nil
}

func (s *Store) findByID(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, name, password_hash, mfa_secret, mfa_enabled, is_builder,
		       is_admin, bound_area, bound_room_id, created_at, last_login, last_logout
		FROM accounts WHERE id = ?
	`), id)
	return scanAccount(row)
}

// encodeQR renders key's provisioning URI as a 256x256 QR code PNG.
func encodeQR(key *otp.Key) ([]byte, error) {
	code, err := qr.Encode(key.String(), qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
