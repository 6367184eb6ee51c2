package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sagarc03/filegate"
)

// objectColumns mirrors the CREATE TABLE in schemaStatements. Timestamps are
// stored as RFC 3339 text.
var objectColumns = []filegate.Column{
	{Name: "id", Type: "text"},
	{Name: "bucket", Type: "text"},
	{Name: "name", Type: "text"},
	{Name: "content_type", Type: "text"},
	{Name: "etag", Type: "text"},
	{Name: "file_size_bytes", Type: "integer"},
	{Name: "created_at", Type: "text"},
	{Name: "updated_at", Type: "text"},
}

// ValidateSchema fails unless the objects table exists with the columns the
// repo reads and writes.
func ValidateSchema(ctx context.Context, db *sql.DB, tables filegate.Tables) error {
	if !filegate.IsValidTableName(tables.Objects) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Objects)
	}

	got, err := tableColumns(ctx, db, tables.Objects)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	if err := filegate.CheckColumns(tables.Objects, objectColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// tableColumns reads PRAGMA table_info for table. A table that does not exist
// is reported as an error rather than an empty column set.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]filegate.Column, error) {
	var found string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup table %s: %w", table, err)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, ident(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(map[string]filegate.Column)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols[name] = filegate.Column{
			Name:     name,
			Type:     strings.ToLower(typ),
			Nullable: notNull == 0 && pk == 0,
		}
	}

	return cols, rows.Err()
}
