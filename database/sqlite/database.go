package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/filegate"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DB is an open SQLite metadata store.
type DB struct {
	sql    *sql.DB
	tables filegate.Tables
}

// Connect opens dsn with the pure-Go modernc driver. dsn may be a file path
// or ":memory:". Nothing is created until Migrate runs.
func Connect(_ context.Context, dsn string, tables filegate.Tables) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}

	// One connection: writers serialize in SQLite regardless, and an in-memory
	// database exists only on the connection that created it.
	conn.SetMaxOpenConns(1)

	return &DB{sql: conn, tables: tables}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.sql, d.tables)
}

func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.sql, d.tables)
}

// GetRepo returns a MetaDataRepo over the objects table.
func (d *DB) GetRepo() filegate.MetaDataRepo {
	return &repo{db: d.sql, tableName: d.tables.Objects}
}

func (d *DB) Close() error {
	return d.sql.Close()
}
