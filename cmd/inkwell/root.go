package main

import (
	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var (
	cfgDBPath    string
	cfgServerURL string
	cfgAPIKey    string
	cfgNoSync    bool
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell - offline-first notes",
	Long: `Inkwell keeps an always-writable local copy of your notes and lazily
reconciles it with a remote authority whenever connectivity permits.

All commands work offline; changes queue locally and sync later.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db-path", "", "Path to local note database (default: ~/.inkwell/notes.db)")
	rootCmd.PersistentFlags().StringVar(&cfgServerURL, "server-url", "", "Base URL of the sync server")
	rootCmd.PersistentFlags().StringVar(&cfgAPIKey, "api-key", "", "API key for sync server authentication")
	rootCmd.PersistentFlags().BoolVar(&cfgNoSync, "no-sync", false, "Disable background sync for this invocation")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() inkwell.Config {
	cfg := inkwell.ConfigFromEnv()

	if cfgDBPath != "" {
		cfg.LocalPath = cfgDBPath
	}
	if cfgServerURL != "" {
		cfg.ServerURL = cfgServerURL
	}
	if cfgAPIKey != "" {
		cfg.APIKey = cfgAPIKey
	}
	if cfgNoSync {
		cfg.AutoSync = false
	}

	return cfg
}
