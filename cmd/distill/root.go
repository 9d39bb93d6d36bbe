package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"distill/engine/internal/appdirs"
	"distill/engine/internal/envfile"
	"distill/engine/internal/logging"
	"distill/engine/internal/settings"
)

var (
	dryRun  bool
	output  string
	workers int
)

var rootCmd = &cobra.Command{
	Use:   "distill",
	Short: "Validation-driven compaction for reference documents",
	Long: `distill rewrites a reference document so that it keeps only what a
summary-driven rewrite could not reproduce, and updates the document's
index entry to match. Every proposal is reviewed by an independent
validator before anything on disk changes; after three rejections the
document is left untouched.

Commands:
  compact  Compact one document or every document under a directory
  version  Show version information`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Run the full loop without touching the originals")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Report format (table, yaml)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Concurrent jobs in directory mode (default from config)")
}

// app holds everything a command needs after bootstrap.
type app struct {
	DataDir  string
	Logger   *slog.Logger
	Settings *settings.Settings
	Store    *settings.Store
	close    func() error
}

// bootstrap loads the env file, resolves the data directory, opens the
// debug log when DISTILL_DEBUG is set, and loads settings. Logging
// failures degrade to a no-op logger rather than aborting the run.
func bootstrap() (*app, error) {
	envResult := envfile.Load()
	dataDir, err := appdirs.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	logSetup, logErr := logging.NewFileLogger(dataDir, envfile.Truthy("DISTILL_DEBUG"))
	logger := logSetup.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("component", "cli")
	if logSetup.Enabled {
		logger.Info("cli.logging_enabled", "path", logSetup.Path)
	}
	if logErr != nil {
		logger.Warn("cli.log_setup_failed", "error", logErr.Error())
	}
	if envResult.Loaded {
		logger.Debug("cli.env_loaded", "path", envResult.Path,
			"values", logging.RedactAny(envResult.Values))
	}
	if envResult.Err != nil {
		logger.Warn("cli.env_load_failed", "path", envResult.Path, "error", envResult.Err.Error())
	}

	store := settings.NewStore(appdirs.SettingsPath(dataDir))
	cfg, err := store.Load()
	if err != nil {
		if logSetup.Close != nil {
			logSetup.Close()
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &app{
		DataDir:  dataDir,
		Logger:   logger,
		Settings: cfg,
		Store:    store,
		close:    logSetup.Close,
	}, nil
}

func (a *app) Close() {
	if a.close != nil {
		a.close()
	}
}
