package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackbird-ai/blackbird/internal/config"
)

var (
	cfgFile      string
	modelFlag    string
	providerFlag string
	dataDirFlag  string

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "blackbird",
		Short: "AI-powered micro-app workbench",
		Long: "blackbird turns a prompt into a self-contained HTML/JS/CSS app,\n" +
			"streams the generation live, and keeps the results in a local library.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/blackbird/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override model")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override provider")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "override the library and app-storage directory")

	// Subcommands
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newAppsCmd())
	rootCmd.AddCommand(newStorageCmd())
	rootCmd.AddCommand(newSDKCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig loads configuration, applying CLI flag overrides. This is the
// single point where the environment is read; everything downstream works
// from the returned value.
func initConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config values
	if providerFlag != "" {
		cfg.Provider = providerFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}

	return cfg
}
