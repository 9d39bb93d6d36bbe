package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"distill/engine/internal/anthropic"
	"distill/engine/internal/appdirs"
	"distill/engine/internal/batch"
	"distill/engine/internal/llm"
	"distill/engine/internal/logging"
	"distill/engine/internal/openai"
	"distill/engine/internal/oracle"
	"distill/engine/internal/pipeline"
	"distill/engine/internal/report"
	"distill/engine/internal/settings"
	"distill/engine/internal/workspace"
)

var indexFlag string

var compactCmd = &cobra.Command{
	Use:   "compact <file-or-directory>",
	Short: "Compact a document, or every document under a directory",
	Long: `Compact one markdown document against its index, or walk a project
directory and compact every document in its content directory.

File mode takes the document path; the index defaults to INDEX.md next
to it. Directory mode takes the project root and discovers documents in
the configured content directory.

Examples:
  distill compact skills/retries.md
  distill compact skills/retries.md --index skills/INDEX.md
  distill compact . --workers 4
  distill compact . --dry-run -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runCompact,
}

func init() {
	compactCmd.Flags().StringVar(&indexFlag, "index", "", "Index file (default: INDEX.md beside the document)")
	rootCmd.AddCommand(compactCmd)
}

func runCompact(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := newRunner(a)
	if err != nil {
		return err
	}

	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	var result report.Batch
	if info.IsDir() {
		result, err = runDirectory(cmd, a, runner, target)
	} else {
		result, err = runSingle(cmd, a, runner, target)
	}
	if err != nil {
		return err
	}

	if err := render(cmd, result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", result.Failed, result.Total)
	}
	return nil
}

func runSingle(cmd *cobra.Command, a *app, runner *pipeline.Runner, contentPath string) (report.Batch, error) {
	indexPath := indexFlag
	if indexPath == "" {
		indexPath = filepath.Join(filepath.Dir(contentPath), a.Settings.IndexFile)
	}
	item, err := runner.Run(cmd.Context(), contentPath, indexPath)
	if err != nil {
		a.Logger.Warn("cli.compact_failed", "path", contentPath, "error", err.Error())
	}
	var b report.Batch
	b.Add(item)
	return b, nil
}

func runDirectory(cmd *cobra.Command, a *app, runner *pipeline.Runner, rootDir string) (report.Batch, error) {
	w := a.Settings.Workers
	if workers > 0 {
		w = workers
	}
	orch := &batch.Orchestrator{
		Runner:     runner,
		ContentDir: a.Settings.ContentDir,
		IndexFile:  a.Settings.IndexFile,
		Workers:    w,
		Logger:     a.Logger,
	}
	return orch.RunAll(cmd.Context(), rootDir)
}

// newRunner wires the provider client, the two oracles, and the
// workspace manager into a pipeline runner.
func newRunner(a *app) (*pipeline.Runner, error) {
	client, apiKey, err := providerClient(a.Settings)
	if err != nil {
		return nil, err
	}
	model := a.Settings.Model
	if model == "" {
		model = settings.DefaultModel(a.Settings.Provider)
	}
	a.Logger.Debug("cli.provider_ready",
		"provider", a.Settings.Provider, "model", model,
		"api_key", logging.RedactValue(apiKey))
	timeout := time.Duration(a.Settings.OracleTimeoutSec) * time.Second

	// Separate completers per oracle; the baseline writer and the
	// validator must not share conversational state.
	baseline := &oracle.BaselineOracle{Completer: &oracle.LLMCompleter{
		Client: client, APIKey: apiKey, Model: model, Timeout: timeout,
	}}
	validator := &oracle.ValidationOracle{Completer: &oracle.LLMCompleter{
		Client: client, APIKey: apiKey, Model: model, Timeout: timeout,
	}}

	manager := workspace.NewManager(appdirs.WorkspacesDir(a.DataDir))
	if err := manager.Init(); err != nil {
		return nil, fmt.Errorf("init workspaces: %w", err)
	}
	return &pipeline.Runner{
		Workspaces:  manager,
		Baseline:    baseline,
		Validator:   validator,
		Logger:      a.Logger,
		DryRun:      dryRun,
		MaxAttempts: a.Settings.MaxAttempts,
	}, nil
}

func providerClient(cfg *settings.Settings) (llm.ChatClient, string, error) {
	switch cfg.Provider {
	case settings.ProviderAnthropic:
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY is not set")
		}
		return anthropic.NewClient(), key, nil
	case settings.ProviderOpenAI:
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return openai.NewClient(), key, nil
	default:
		return nil, "", fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func render(cmd *cobra.Command, b report.Batch) error {
	switch output {
	case "yaml":
		text, err := b.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
	default:
		fmt.Fprint(cmd.OutOrStdout(), b.Table())
	}
	return nil
}
