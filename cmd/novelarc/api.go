package main

import (
	"github.com/spf13/cobra"

	"github.com/novelarc/novelarc/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Novelarc server via HTTP.

These commands require a running server (novelarc serve).
Use --server to specify a custom server URL.

Examples:
  novelarc api health              # Check server health
  novelarc api jobs list           # List translation jobs
  novelarc api jobs get <id>       # Get a specific job`,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Translation job commands",
}

var novelsCmd = &cobra.Command{
	Use:   "novels",
	Short: "Novel management commands",
}

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Glossary management commands",
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Configuration settings commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))

	// Endpoint groups
	for _, ep := range endpoints.JobCommands() {
		jobsCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.NovelCommands() {
		novelsCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.GlossaryCommands() {
		glossaryCmd.AddCommand(ep.Command(getServerURL))
	}
	for _, ep := range endpoints.SettingsCommands() {
		settingsCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(jobsCmd)
	apiCmd.AddCommand(novelsCmd)
	apiCmd.AddCommand(glossaryCmd)
	apiCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(apiCmd)
}
