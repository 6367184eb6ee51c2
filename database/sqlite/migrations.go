package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/filegate"
)

// ident double-quotes a table or index name. Names reaching here have passed
// filegate.IsValidTableName, so they never contain a quote.
func ident(name string) string {
	return `"` + name + `"`
}

// schemaStatements returns the DDL for the objects table, in order. Every
// statement is idempotent.
func schemaStatements(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			bucket TEXT NOT NULL,
			name TEXT NOT NULL,
			content_type TEXT NOT NULL,
			etag TEXT NOT NULL,
			file_size_bytes INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`, ident(table)),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (bucket, name)`,
			ident("idx_"+table+"_bucket_name"), ident(table)),
	}
}

// Migrate applies schemaStatements in a single transaction.
func Migrate(ctx context.Context, db *sql.DB, tables filegate.Tables) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate %s: begin: %w", tables.Objects, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements(tables.Objects) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", tables.Objects, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate %s: commit: %w", tables.Objects, err)
	}
	return nil
}

// DropTables removes the objects table and its index.
func DropTables(ctx context.Context, db *sql.DB, tables filegate.Tables) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident(tables.Objects)); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Objects, err)
	}
	return nil
}
