package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filegate"
)

func schemaStatements(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			bucket TEXT NOT NULL,
			name TEXT NOT NULL,
			content_type TEXT NOT NULL,
			etag TEXT NOT NULL,
			file_size_bytes BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT %s UNIQUE (bucket, name)
		)`, pgx.Identifier{table}.Sanitize(), pgx.Identifier{"uq_" + table + "_bucket_name"}.Sanitize()),
	}
}

// Migrate creates the objects table inside one transaction. Running it again
// is a no-op.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables filegate.Tables) error {
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, stmt := range schemaStatements(tables.Objects) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migrate %s: %w", tables.Objects, err)
	}
	return nil
}

// DropTables removes the objects table. Tests use it to clean up.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables filegate.Tables) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{tables.Objects}.Sanitize()); err != nil {
		return fmt.Errorf("drop %s: %w", tables.Objects, err)
	}
	return nil
}
