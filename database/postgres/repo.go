// Package postgres implements filegate.MetaDataRepo on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filegate"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

const selectColumns = `id, bucket, name, content_type, etag, file_size_bytes, created_at, updated_at`

func scanMetaData(row pgx.Row) (filegate.MetaData, error) {
	var m filegate.MetaData
	err := row.Scan(&m.ID, &m.Bucket, &m.Name, &m.ContentType, &m.Etag, &m.FileSizeBytes, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *repo) Get(ctx context.Context, bucket, name string) (filegate.MetaData, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE bucket = $1 AND name = $2
	`, selectColumns, pgx.Identifier{r.tableName}.Sanitize())

	m, err := scanMetaData(r.pool.QueryRow(ctx, query, bucket, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return filegate.MetaData{}, filegate.ErrNotFound
		}
		return filegate.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

func (r *repo) Upsert(ctx context.Context, entry filegate.ObjectEntry) (filegate.MetaData, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (bucket, name, content_type, etag, file_size_bytes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bucket, name) DO UPDATE
		SET content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			file_size_bytes = EXCLUDED.file_size_bytes,
			updated_at = NOW()
		RETURNING %s
	`, pgx.Identifier{r.tableName}.Sanitize(), selectColumns)

	m, err := scanMetaData(r.pool.QueryRow(ctx, query,
		entry.Bucket, entry.Name, entry.ContentType, entry.ETag, entry.Size,
	))
	if err != nil {
		return filegate.MetaData{}, fmt.Errorf("upsert: %w", err)
	}

	return m, nil
}

// List pages in byte order so results match the sqlite backend regardless
// of the database collation.
func (r *repo) List(ctx context.Context, q filegate.ListQuery) (filegate.ListResult, error) {
	if q.Limit <= 0 {
		return filegate.ListResult{}, fmt.Errorf("list: limit must be positive: %w", filegate.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE bucket = $1 AND name COLLATE "C" > $2
		ORDER BY name COLLATE "C"
		LIMIT $3
	`, selectColumns, pgx.Identifier{r.tableName}.Sanitize())

	rows, err := r.pool.Query(ctx, query, q.Bucket, q.After, q.Limit+1)
	if err != nil {
		return filegate.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]filegate.MetaData, 0, q.Limit)
	for rows.Next() {
		m, scanErr := scanMetaData(rows)
		if scanErr != nil {
			return filegate.ListResult{}, fmt.Errorf("list: scan: %w", scanErr)
		}
		items = append(items, m)
	}

	if err := rows.Err(); err != nil {
		return filegate.ListResult{}, fmt.Errorf("list: rows: %w", err)
	}

	var next string
	if len(items) > q.Limit {
		items = items[:q.Limit]
		next = items[q.Limit-1].Name
	}

	return filegate.ListResult{Items: items, Next: next}, nil
}
