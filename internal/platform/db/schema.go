package db

import (
	"context"
	"database/sql"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS passcode (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		salt VARCHAR(32)  NOT NULL,
		` + "`key`" + ` VARCHAR(128) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS borrower (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		name      VARCHAR NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS asset (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		name    VARCHAR NOT NULL UNIQUE,
		total   INTEGER NOT NULL CONSTRAINT check_total_positive CHECK (total >= 0),
		instock INTEGER NOT NULL CONSTRAINT check_instock_positive CHECK (instock >= 0),
		CONSTRAINT bounded_by_total CHECK (instock <= total)
	)`,
	`CREATE TABLE IF NOT EXISTS loan (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		borrower_id INTEGER NOT NULL REFERENCES borrower(id),
		asset_id    INTEGER NOT NULL REFERENCES asset(id),
		quantity    INTEGER NOT NULL,
		datedue     DATE    NOT NULL,
		is_returned BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS ix_loan_borrower ON loan (borrower_id, is_returned)`,
	`CREATE INDEX IF NOT EXISTS ix_loan_asset ON loan (asset_id, is_returned)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS passcode (
		id   BIGINT AUTO_INCREMENT PRIMARY KEY,
		salt VARCHAR(32)  NOT NULL,
		` + "`key`" + ` VARCHAR(128) NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS borrower (
		id        BIGINT AUTO_INCREMENT PRIMARY KEY,
		name      VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE KEY ux_borrower_name (name)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS asset (
		id      BIGINT AUTO_INCREMENT PRIMARY KEY,
		name    VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		total   INT NOT NULL,
		instock INT NOT NULL,
		UNIQUE KEY ux_asset_name (name),
		CONSTRAINT check_total_positive CHECK (total >= 0),
		CONSTRAINT check_instock_positive CHECK (instock >= 0),
		CONSTRAINT bounded_by_total CHECK (instock <= total)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS loan (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		borrower_id BIGINT NOT NULL,
		asset_id    BIGINT NOT NULL,
		quantity    INT NOT NULL,
		datedue     DATE NOT NULL,
		is_returned BOOLEAN NOT NULL DEFAULT FALSE,
		KEY ix_loan_borrower (borrower_id, is_returned),
		KEY ix_loan_asset (asset_id, is_returned),
		CONSTRAINT fk_loan_borrower FOREIGN KEY (borrower_id) REFERENCES borrower(id),
		CONSTRAINT fk_loan_asset FOREIGN KEY (asset_id) REFERENCES asset(id)
	) ENGINE=InnoDB`,
}

// never alters or drops
func EnsureSchema(ctx context.Context, conn *sql.DB, driver string) error {
	stmts := sqliteSchema
	if driver == DriverMySQL {
		stmts = mysqlSchema
	}
	return RunInTx(ctx, conn, nil, func(ctx context.Context, tx DBTX) error {
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}
