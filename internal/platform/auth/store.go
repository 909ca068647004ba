package auth

import (
	"context"
	"database/sql"
	"errors"

	"assetmanagement/internal/platform/db"
)

// Salt and Key are hex.
type Passcode struct {
	ID   int64
	Salt string
	Key  string
}

func latestPasscodeTx(ctx context.Context, tx db.DBTX) (*Passcode, error) {
	const q = "SELECT id, salt, `key` FROM passcode ORDER BY id DESC LIMIT 1"
	var p Passcode
	err := tx.QueryRowContext(ctx, q).Scan(&p.ID, &p.Salt, &p.Key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func countPasscodesTx(ctx context.Context, tx db.DBTX) (int, error) {
	const q = `SELECT COUNT(*) FROM passcode`
	var n int
	if err := tx.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// replacePasscodeTx leaves p as the only row.
func replacePasscodeTx(ctx context.Context, tx db.DBTX, p *Passcode) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM passcode`); err != nil {
		return err
	}
	const q = "INSERT INTO passcode (salt, `key`) VALUES (?, ?)"
	res, err := tx.ExecContext(ctx, q, p.Salt, p.Key)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}
