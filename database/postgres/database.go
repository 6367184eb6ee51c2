package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filegate"
)

// DB is a pgx connection pool holding object metadata.
type DB struct {
	pool   *pgxpool.Pool
	tables filegate.Tables
}

// Connect builds a pool for dsn. pgxpool connects lazily, so an unreachable
// server surfaces on Ping rather than here.
func Connect(ctx context.Context, dsn string, tables filegate.Tables) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	return &DB{pool: pool, tables: tables}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *DB) Migrate(ctx context.Context) error {
	return Migrate(ctx, d.pool, d.tables)
}

func (d *DB) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns a MetaDataRepo over the objects table.
func (d *DB) GetRepo() filegate.MetaDataRepo {
	return &repo{pool: d.pool, tableName: d.tables.Objects}
}

// Close releases every pooled connection. It never fails.
func (d *DB) Close() error {
	d.pool.Close()
	return nil
}
