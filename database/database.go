package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/database/postgres"
	"github.com/sagarc03/filegate/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN    string          `mapstructure:"dsn" validate:"required"`
	Tables filegate.Tables `mapstructure:"tables"`
	// AutoMigrate runs Migrate when the server starts.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// Database is a metadata backend connection.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() filegate.MetaDataRepo
	Close() error
}

// Connect opens the configured backend. It does not migrate; call Migrate
// (or run `filegate migrate`) before Validate.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("connect: unsupported database type: %q", cfg.Type)
	}
}
