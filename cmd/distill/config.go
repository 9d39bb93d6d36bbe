package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"distill/engine/internal/settings"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()
		data, err := yaml.Marshal(a.Settings)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and persist it.

Keys: provider, model, oracle_timeout_seconds, index_file, content_dir,
workers, max_attempts.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()
		key, value := args[0], args[1]
		var applyErr error
		if _, err := a.Store.Update(func(s *settings.Settings) {
			applyErr = applySetting(s, key, value)
		}); err != nil {
			return err
		}
		if applyErr != nil {
			return applyErr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
		return nil
	},
}

func applySetting(s *settings.Settings, key, value string) error {
	switch key {
	case "provider":
		if value != settings.ProviderAnthropic && value != settings.ProviderOpenAI {
			return fmt.Errorf("unknown provider %q", value)
		}
		s.Provider = value
	case "model":
		s.Model = value
	case "oracle_timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("oracle_timeout_seconds must be a positive integer")
		}
		s.OracleTimeoutSec = n
	case "index_file":
		s.IndexFile = value
	case "content_dir":
		s.ContentDir = value
	case "workers":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("workers must be a positive integer")
		}
		s.Workers = n
	case "max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("max_attempts must be a positive integer")
		}
		s.MaxAttempts = n
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
