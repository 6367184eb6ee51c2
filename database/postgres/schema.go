package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filegate"
)

var objectColumns = []filegate.Column{
	{Name: "id", Type: "uuid"},
	{Name: "bucket", Type: "text"},
	{Name: "name", Type: "text"},
	{Name: "content_type", Type: "text"},
	{Name: "etag", Type: "text"},
	{Name: "file_size_bytes", Type: "bigint"},
	{Name: "created_at", Type: "timestamp with time zone"},
	{Name: "updated_at", Type: "timestamp with time zone"},
}

// ValidateSchema fails unless the objects table exists in the current schema
// with the columns the repo reads and writes.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables filegate.Tables) error {
	if !filegate.IsValidTableName(tables.Objects) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Objects)
	}

	got, err := tableColumns(ctx, pool, tables.Objects)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	if err := filegate.CheckColumns(tables.Objects, objectColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// tableColumns reads information_schema.columns for table. A table with no
// columns there does not exist in the current schema.
func tableColumns(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]filegate.Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]filegate.Column)
	for rows.Next() {
		var name, typ, nullable string
		if err := rows.Scan(&name, &typ, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = filegate.Column{
			Name:     name,
			Type:     strings.ToLower(typ),
			Nullable: nullable == "YES",
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query columns of %s: %w", table, err)
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return cols, nil
}
