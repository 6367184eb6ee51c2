// Package sqlite implements filegate.MetaDataRepo on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/filegate"
)

type repo struct {
	db        *sql.DB
	tableName string
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetaData(row rowScanner) (filegate.MetaData, error) {
	var m filegate.MetaData
	var idStr, createdAt, updatedAt string

	if err := row.Scan(&idStr, &m.Bucket, &m.Name, &m.ContentType, &m.Etag, &m.FileSizeBytes, &createdAt, &updatedAt); err != nil {
		return filegate.MetaData{}, err
	}

	var err error
	m.ID, err = uuid.Parse(idStr)
	if err != nil {
		return filegate.MetaData{}, fmt.Errorf("parse uuid: %w", err)
	}

	m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return filegate.MetaData{}, fmt.Errorf("parse created_at: %w", err)
	}

	m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return filegate.MetaData{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return m, nil
}

func (r *repo) Get(ctx context.Context, bucket, name string) (filegate.MetaData, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, bucket, name, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE bucket = ? AND name = ?`, ident(r.tableName))

	m, err := scanMetaData(r.db.QueryRowContext(ctx, query, bucket, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return filegate.MetaData{}, filegate.ErrNotFound
		}
		return filegate.MetaData{}, fmt.Errorf("get: %w", err)
	}

	return m, nil
}

func (r *repo) Upsert(ctx context.Context, entry filegate.ObjectEntry) (filegate.MetaData, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, bucket, name, content_type, etag, file_size_bytes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (bucket, name) DO UPDATE
		SET content_type = excluded.content_type,
			etag = excluded.etag,
			file_size_bytes = excluded.file_size_bytes,
			updated_at = excluded.updated_at
		RETURNING id, bucket, name, content_type, etag, file_size_bytes, created_at, updated_at`,
		ident(r.tableName))

	m, err := scanMetaData(r.db.QueryRowContext(ctx, query,
		uuid.New().String(), entry.Bucket, entry.Name, entry.ContentType, entry.ETag, entry.Size, now, now,
	))
	if err != nil {
		return filegate.MetaData{}, fmt.Errorf("upsert: %w", err)
	}

	return m, nil
}

func (r *repo) List(ctx context.Context, q filegate.ListQuery) (filegate.ListResult, error) {
	if q.Limit <= 0 {
		return filegate.ListResult{}, fmt.Errorf("list: limit must be positive: %w", filegate.ErrInvalidInput)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, bucket, name, content_type, etag, file_size_bytes, created_at, updated_at
		FROM %s
		WHERE bucket = ? AND name > ?
		ORDER BY name
		LIMIT ?`, ident(r.tableName))

	rows, err := r.db.QueryContext(ctx, query, q.Bucket, q.After, q.Limit+1)
	if err != nil {
		return filegate.ListResult{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
