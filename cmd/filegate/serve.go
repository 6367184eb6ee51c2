package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/config"
	filegatehttp "github.com/sagarc03/filegate/http"
)

// prepareTimeout bounds the startup bucket check.
const prepareTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the filegate HTTP server.

The bucket is checked and created before the listener opens. A failure there
is logged and the server starts anyway unless storage.fail_fast_on_startup
(or --fail-fast) is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 3000, "HTTP server port")
	serveCmd.Flags().Bool("fail-fast", false, "exit when the bucket cannot be prepared")
	serveCmd.Flags().Bool("stream-list", false, "stream GET /files by default")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer b.Close()

	gateway, err := filegate.NewGateway(b.store, cfg.GatewayConfig())
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	prepareCtx, cancelPrepare := context.WithTimeout(ctx, prepareTimeout)
	err = gateway.Prepare(prepareCtx)
	cancelPrepare()
	if err != nil {
		return err
	}

	handlerConfig := filegatehttp.HandlerConfig{
		CORS:           cfg.CORS,
		MaxUploadSize:  cfg.Server.MaxUploadSize,
		StreamList:     cfg.Server.StreamList,
		DownloadErrors: filegatehttp.DownloadErrors(cfg.Server.DownloadErrors),
		Objects:        b.opener,
	}
	if cfg.Server.Metrics {
		metrics := filegatehttp.NewMetrics()
		metrics.Registry().MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		handlerConfig.Metrics = metrics
	}

	handler := filegatehttp.NewHandler(&handlerConfig, gateway)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "backend", cfg.Storage.Backend, "bucket", gateway.Bucket())
		errCh <- server.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
