// Package cli implements the circlegha command tree. Commands are thin
// plumbing: they read config files, call the analysis core, and print or
// write the results.
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/mozilla/circleci-to-gha/internal/common"
)

var (
	appConfig *common.Config
	// logger starts as the default console logger so failures before config
	// loading still log somewhere; PersistentPreRunE swaps in the configured
	// one
	logger arbor.ILogger = common.GetLogger()

	configFiles []string
	provider    string
	model       string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "circlegha",
	Short: "CircleCI to GitHub Actions migration assistant",
	Long: "circlegha analyzes CircleCI pipeline configs, produces a structured migration plan\n" +
		"and checklist, and drafts GitHub Actions workflows via an AI generation service.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		paths := configFiles
		if len(paths) == 0 {
			// Auto-discover an app config beside the working directory
			if _, err := os.Stat("circlegha.toml"); err == nil {
				paths = []string{"circlegha.toml"}
			}
		}

		var err error
		appConfig, err = common.LoadFromFiles(paths...)
		if err != nil {
			return err
		}
		if logLevel != "" {
			appConfig.Logging.Level = logLevel
		}
		common.ApplyFlagOverrides(appConfig, provider, model)

		logger = common.InitLogger(appConfig)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringArrayVar(&configFiles, "config-file", nil,
		"Application config file (TOML, can be specified multiple times, later files override earlier ones)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "",
		"Generation provider: claude or gemini (overrides config)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "",
		"Model name for the selected provider (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newChecklistCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newInfraPRCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// repoNameOrDefault falls back to the working directory name, matching
// the convention that the tool runs from the repo being migrated
func repoNameOrDefault(repoName string) string {
	if repoName != "" {
		return repoName
	}
	wd, err := os.Getwd()
	if err != nil {
		return "unknown-repo"
	}
	return filepath.Base(wd)
}
