package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flipbook/service/internal/config"
	"github.com/flipbook/service/internal/logging"
	"github.com/flipbook/service/internal/server"
	"github.com/flipbook/service/internal/tracing"
)

var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "flipbook",
	Short:         "Image upload and animated GIF composition service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel, cfg.IsProduction()))
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to execute command", "error", err)
		os.Exit(1)
	}
}

// bootstrap initializes tracing and builds the application graph.
// The returned function flushes the tracer provider.
func bootstrap(ctx context.Context) (*server.App, func(), error) {
	shutdown, err := tracing.Init(ctx, tracing.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Protocol:    cfg.Tracing.Protocol,
		SampleRatio: cfg.Tracing.SampleRatio,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("tracing init failed: %w", err)
	}
	cleanup := func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}

	app, err := server.New(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if app.Store.Bucket() == "" {
		slog.Warn("BUCKET_NAME is not set; upload and generate requests will fail")
	}
	return app, cleanup, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
