package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/config"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Create the bucket if it does not exist",
	Long: `Check that the configured bucket exists and create it if needed, then exit.
Unlike serve, any failure is reported through the exit status.`,
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer b.Close()

	gateway, err := filegate.NewGateway(b.store, cfg.GatewayConfig())
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	if err = gateway.EnsureBucket(ctx); err != nil {
		return err
	}

	slog.Info("bucket ready", "bucket", gateway.Bucket())
	return nil
}
