// Package cli wires the cobra command tree: shared configuration and
// logger bootstrap plus the duplicates, bitrate and watch subcommands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fermata/internal/config"
	"fermata/internal/probe"
	"fermata/internal/scanner"
)

var (
	cfg    *config.Config
	logger = logrus.New()

	cmdRoot = &cobra.Command{
		Use:   "fermata",
		Short: "Organize an audio collection: resolve duplicates and classify bitrates",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
	}
)

func init() {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	cmdRoot.PersistentFlags().String("config", "./config.toml", "Configuration file path")
}

// Execute runs the root command under a signal-aware context so an
// interrupt cancels in-flight scanning before any files are touched.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmdRoot.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads .env overrides and the TOML config, then configures the
// shared logger from it.
func setup(cmd *cobra.Command) error {
	_ = godotenv.Load(".env")

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if env := os.Getenv("FERMATA_CONFIG"); env != "" {
		configPath = env
	}

	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(file)
	}
	return nil
}

// newEngine assembles the prober and scanner for one run. The returned
// cleanup prunes and closes the probe cache; it is safe to call even
// when the cache could not be opened (a warning, never a failure).
func newEngine(workers int) (*scanner.Scanner, func()) {
	cleanup := func() {}

	var cache *probe.Cache
	if cfg.Cache.Enabled {
		opened, err := probe.OpenCache(cfg.Cache.Path, logger)
		if err != nil {
			logger.WithError(err).Warn("Probe cache unavailable; continuing without it")
		} else {
			cache = opened
			cleanup = func() {
				opened.Prune()
				opened.Close()
			}
		}
	}

	if workers <= 0 {
		workers = cfg.Scanner.Workers
	}
	prober := probe.New(cfg.Library.SupportedFormats, cache, logger)
	return scanner.New(prober, workers, logger), cleanup
}
