package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Connect(DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := EnsureSchema(context.Background(), conn, DriverSQLite); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return conn
}

func countBorrowers(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM borrower`).Scan(&n); err != nil {
		t.Fatalf("count borrowers: %v", err)
	}
	return n
}

func TestRunInTx_Commit(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()

	err := RunInTx(ctx, conn, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO borrower (name) VALUES ('Amy')`)
		return err
	})
	if err != nil {
		t.Fatalf("RunInTx failed: %v", err)
	}
	if n := countBorrowers(t, conn); n != 1 {
		t.Errorf("expected 1 borrower, got %d", n)
	}
}

func TestRunInTx_RollbackReturnsOriginalError(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := RunInTx(ctx, conn, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO borrower (name) VALUES ('Amy')`); err != nil {
			t.Fatalf("insert: %v", err)
		}
		return boom
	})
	if err != boom {
		t.Errorf("expected the original error back unchanged, got: %v", err)
	}
	if n := countBorrowers(t, conn); n != 0 {
		t.Errorf("expected rollback, found %d borrowers", n)
	}
}

func TestRunInTx_PanicRollsBackAndRepanics(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Errorf("expected panic to be re-raised, got %v", r)
			}
		}()
		_ = RunInTx(ctx, conn, nil, func(ctx context.Context, tx DBTX) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO borrower (name) VALUES ('Amy')`); err != nil {
				t.Fatalf("insert: %v", err)
			}
			panic("kaboom")
		})
	}()

	if n := countBorrowers(t, conn); n != 0 {
		t.Errorf("expected rollback after panic, found %d borrowers", n)
	}

	// The single pooled connection must have been released.
	if err := RunInTx(ctx, conn, nil, func(ctx context.Context, tx DBTX) error { return nil }); err != nil {
		t.Errorf("connection not released after panic: %v", err)
	}
}

func TestRunInTx_ConstraintFailureRollsBackEverything(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()

	err := RunInTx(ctx, conn, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO borrower (name) VALUES ('Amy')`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO borrower (name) VALUES ('Amy')`)
		return err
	})
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got: %v", err)
	}
	if n := countBorrowers(t, conn); n != 0 {
		t.Errorf("expected no partial commit, found %d borrowers", n)
	}
}

func TestReadOnly(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()

	var n int
	err := ReadOnly(ctx, conn, func(ctx context.Context, tx DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM asset`).Scan(&n)
	})
	if err != nil {
		t.Fatalf("ReadOnly failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty asset table, got %d rows", n)
	}
}
