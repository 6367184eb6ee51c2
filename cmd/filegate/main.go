package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "filegate",
	Short:   "HTTP gateway for uploading, listing and sharing files in an object store",
	Long: `Filegate accepts multipart uploads, lists the stored files and hands out
time-limited download URLs for a single bucket of an S3-compatible object
store or of its built-in local backend.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringSlice("config", nil, "config file path, repeatable; later files override earlier ones (default: ./config.yaml)")
	flags.String("backend", "", "object store backend: minio, local (default: minio, env: FILEGATE_STORAGE_BACKEND)")
	flags.String("bucket", "", "bucket every operation targets (default: files, env: FILEGATE_STORAGE_BUCKET)")
	flags.String("endpoint", "", "minio endpoint host:port (default: 127.0.0.1:9000, env: FILEGATE_MINIO_ENDPOINT)")
	flags.String("storage-path", "", "local backend data directory (default: ./data, env: FILEGATE_LOCAL_PATH)")
	flags.String("db-type", "", "local backend metadata database: sqlite, postgres (default: sqlite, env: FILEGATE_DATABASE_TYPE)")
	flags.String("db-dsn", "", "metadata database connection string (default: filegate.db, env: FILEGATE_DATABASE_DSN)")
	flags.String("log-level", "", "log level: debug, info, warn, error (default: debug in dev, info in prod, env: FILEGATE_LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
