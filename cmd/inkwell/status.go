package main

import (
	"context"
	"fmt"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long:  `Show connectivity, pending changes and the outcome of the last sync.`,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.AutoSync = false

	client, err := inkwell.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	status := client.Status()

	if cfg.ServerURL == "" {
		fmt.Println("Mode: offline-only (no server configured)")
	} else if status.Online {
		fmt.Println("Mode: online")
	} else {
		fmt.Println("Mode: offline")
	}

	fmt.Printf("Pending changes: %d\n", status.PendingCount)

	// The engine only knows about syncs from this process; the store
	// remembers across runs.
	lastSync := status.LastSyncAt
	stats, statsErr := client.Stats(context.Background())
	if lastSync.IsZero() && statsErr == nil {
		lastSync = stats.LastSync
	}
	if !lastSync.IsZero() {
		fmt.Printf("Last sync: %s\n", lastSync.Local().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Last sync: never")
	}
	if status.LastError != "" {
		fmt.Printf("Last error: %s\n", status.LastError)
	}

	if statsErr == nil {
		fmt.Printf("Local notes: %d\n", stats.NoteCount)
	}

	return nil
}
