package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/novelarc/novelarc/internal/api"
	"github.com/novelarc/novelarc/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a default config file to the home directory.

The generated file documents every option and references API keys
through environment variables, e.g. "${GEMINI_API_KEY}".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = h.ConfigPath()
		}

		if _, err := os.Stat(path); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after file, environment and
default merging. API key values are not resolved or printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			h, err := getHome()
			if err != nil {
				return err
			}
			if h.ConfigExists() {
				path = h.ConfigPath()
			}
		}

		var cfg *config.Config
		if path != "" {
			mgr, err := config.NewManager(path)
			if err != nil {
				return err
			}
			cfg = mgr.Get()
		} else {
			cfg = config.DefaultConfig()
		}

		return api.Output(cfg)
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
