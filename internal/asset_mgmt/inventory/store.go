package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"assetmanagement/internal/platform/db"
)

// All queries run on the caller's tx.

// ---- borrower ----

// getBorrowerTx returns nil, nil when no borrower has the name.
func getBorrowerTx(ctx context.Context, tx db.DBTX, name string) (*Borrower, error) {
	const q = `SELECT id, name, is_active FROM borrower WHERE name = ?`
	var b Borrower
	err := tx.QueryRowContext(ctx, q, name).Scan(&b.ID, &b.Name, &b.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func insertBorrowerTx(ctx context.Context, tx db.DBTX, name string) (int64, error) {
	const q = `INSERT INTO borrower (name, is_active) VALUES (?, 1)`
	res, err := tx.ExecContext(ctx, q, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func setBorrowerActiveTx(ctx context.Context, tx db.DBTX, id int64, active bool) error {
	const q = `UPDATE borrower SET is_active = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, active, id)
	return err
}

func listBorrowerNamesTx(ctx context.Context, tx db.DBTX, activeOnly bool) ([]string, error) {
	q := `SELECT name FROM borrower`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY name`

	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0, 16)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ---- asset ----

// getAssetTx returns nil, nil when no asset has the name.
func getAssetTx(ctx context.Context, tx db.DBTX, name string) (*Asset, error) {
	const q = `SELECT id, name, total, instock FROM asset WHERE name = ?`
	var a Asset
	err := tx.QueryRowContext(ctx, q, name).Scan(&a.ID, &a.Name, &a.Total, &a.Instock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func insertAssetTx(ctx context.Context, tx db.DBTX, name string, total int) (int64, error) {
	const q = `INSERT INTO asset (name, total, instock) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, name, total, total)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// bounds are left to the CHECK constraints
func addAssetCountsTx(ctx context.Context, tx db.DBTX, id int64, dTotal, dInstock int) error {
	const q = `UPDATE asset SET total = total + ?, instock = instock + ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, dTotal, dInstock, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return &Error{Code: CodeInternal, Message: "asset row not updated"}
	}
	return nil
}

func listAssetsTx(ctx context.Context, tx db.DBTX, f AssetFilter) ([]Asset, error) {
	q := `SELECT id, name, total, instock FROM asset`
	var where []string
	if f.ActiveOnly {
		where = append(where, `total > 0`)
	}
	if f.InstockOnly {
		where = append(where, `instock > 0`)
	}
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY name`

	rows, err := tx.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Asset, 0, 16)
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.Total, &a.Instock); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---- loan ----

func insertLoanTx(ctx context.Context, tx db.DBTX, l *Loan) error {
	const q = `
	INSERT INTO loan (borrower_id, asset_id, quantity, datedue, is_returned)
	VALUES (?, ?, ?, ?, 0)`
	res, err := tx.ExecContext(ctx, q, l.BorrowerID, l.AssetID, l.Quantity, l.DateDue)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = id
	l.IsReturned = false
	return nil
}

func countOpenLoansByBorrowerTx(ctx context.Context, tx db.DBTX, borrowerID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM loan WHERE borrower_id = ? AND is_returned = 0`
	var n int
	if err := tx.QueryRowContext(ctx, q, borrowerID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// openLoanSumTx returns (count, summed quantity) of the pair's open loans.
func openLoanSumTx(ctx context.Context, tx db.DBTX, borrowerID, assetID int64) (count, quantity int, err error) {
	const q = `
	SELECT COUNT(*), COALESCE(SUM(quantity), 0)
	FROM loan
	WHERE borrower_id = ? AND asset_id = ? AND is_returned = 0`
	err = tx.QueryRowContext(ctx, q, borrowerID, assetID).Scan(&count, &quantity)
	return count, quantity, err
}

func closeOpenLoansTx(ctx context.Context, tx db.DBTX, borrowerID, assetID int64) (int64, error) {
	const q = `
	UPDATE loan SET is_returned = 1
	WHERE borrower_id = ? AND asset_id = ? AND is_returned = 0`
	res, err := tx.ExecContext(ctx, q, borrowerID, assetID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func listLoansTx(ctx context.Context, tx db.DBTX, f LoanFilter, today db.Date) ([]LoanView, error) {
	q := `
	SELECT l.id, b.name, a.name, l.quantity, l.datedue, l.is_returned
	FROM loan l
	JOIN borrower b ON b.id = l.borrower_id
	JOIN asset a ON a.id = l.asset_id`

	var (
		where []string
		args  []any
	)
	if f.Borrower != nil {
		where = append(where, `b.name = ?`)
		args = append(args, *f.Borrower)
	}
	if f.Asset != nil {
		where = append(where, `a.name = ?`)
		args = append(args, *f.Asset)
	}
	if f.ActiveOnly || f.OverdueOnly {
		where = append(where, `l.is_returned = 0`)
	}
	if f.OverdueOnly {
		where = append(where, `l.datedue < ?`)
		args = append(args, today)
	}
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY l.datedue, b.name, a.name, l.id`

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LoanView, 0, 16)
	for rows.Next() {
		var v LoanView
		if err := rows.Scan(&v.ID, &v.BorrowerName, &v.AssetName, &v.Quantity, &v.DateDue, &v.IsReturned); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
