package main

import (
	"github.com/spf13/cobra"

	"github.com/novelarc/novelarc/internal/api"
	"github.com/novelarc/novelarc/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "novelarc",
	Short: "Web novel hosting with LLM-powered translation",
	Long: `Novelarc hosts web novels and translates them chapter by chapter
using LLM providers with rotating credentials.

The translation pipeline includes:
  - PDF import with chapter splitting
  - Asynchronous translation jobs with pause and resume
  - Per-novel glossaries learned from each translated chapter
  - Credential rotation on provider rate limits`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.novelarc/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "novelarc home directory (default: ~/.novelarc)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
