package filegate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// MetaDataRepo persists object metadata for backends that keep their own
// index, such as the local filesystem backend.
type MetaDataRepo interface {
	// Get returns the record for name in bucket, or ErrNotFound.
	Get(ctx context.Context, bucket, name string) (MetaData, error)

	// Upsert inserts or replaces the record keyed by (entry.Bucket, entry.Name).
	// CreatedAt and ID survive a replace.
	Upsert(ctx context.Context, entry ObjectEntry) (MetaData, error)

	// List returns up to q.Limit records with names greater than q.After, in
	// name order. Next is set when more records remain.
	List(ctx context.Context, q ListQuery) (ListResult, error)
}

// Tables holds configurable table names for metadata storage.
// This allows several gateways to share one database.
type Tables struct {
	Objects string `mapstructure:"objects" validate:"required"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Objects == "" {
		return errors.New("validate tables: objects table name cannot be empty")
	}

	if !IsValidTableName(t.Objects) {
		return fmt.Errorf("validate tables: invalid objects table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Objects)
	}

	return nil
}
