package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/promptrepo/internal/config"
	"github.com/JaimeStill/promptrepo/internal/infrastructure"
	"github.com/JaimeStill/promptrepo/internal/prompts"
	"github.com/JaimeStill/promptrepo/internal/repository"
)

var (
	cfgFile string
	envName string
)

var rootCmd = &cobra.Command{
	Use:   "promptctl",
	Short: "Operate on the versioned prompt repository",
	Long: `promptctl reads, compares, and writes prompt repository documents
in each configured environment without the web console.

Every write creates a new timestamped version; nothing is overwritten.

Examples:
  promptctl versions FAST --env qa
  promptctl show FAST --env prod
  promptctl compare FAST --left qa --right prod
  promptctl edit FAST --prompt GREETING --file greeting.txt`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.toml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&envName, "env", "e", "", "environment (default: the configured default environment)",
	)

	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(envsCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

// workspace is the loaded configuration and prompt system for one invocation.
type workspace struct {
	cfg *config.Config
	sys prompts.System
}

func open() (*workspace, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	sys := prompts.New(
		infra.Dispatcher,
		infra.Snapshots,
		infra.Backend,
		cfg.Apps,
		cfg.DefaultEnvironment,
		repository.Aliases(cfg.Aliases),
		infra.Logger,
	)
	return &workspace{cfg: cfg, sys: sys}, nil
}

func (s *workspace) env() string {
	if envName != "" {
		return envName
	}
	return s.sys.DefaultEnvironment()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
