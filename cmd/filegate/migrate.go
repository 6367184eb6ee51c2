package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/config"
	"github.com/sagarc03/filegate/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the metadata table used by the local backend",
	Long: `Create the objects table in the configured sqlite or postgres database
and check that its columns match what filegate expects. Safe to run repeatedly.

Only the local backend keeps metadata; with the minio backend this command is
not needed.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != "local" {
		slog.Warn("migrate only affects the local backend", "backend", cfg.Storage.Backend)
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("reach %s database: %w", cfg.Database.Type, err)
	}
	if err := db.Migrate(ctx); err != nil {
		return err
	}
	if err := db.Validate(ctx); err != nil {
		return err
	}

	slog.Info("metadata schema ready", "db", cfg.Database.Type, "table", cfg.Database.Tables.Objects)
	return nil
}
