package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var syncBootstrap bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with the server",
	Long: `Synchronize local notes with the sync server.

Example:
  inkwell sync              # Push pending changes and reconcile
  inkwell sync --bootstrap  # Also pull the full remote record set first`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncBootstrap, "bootstrap", false, "Pull the full remote record set before syncing")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.ServerURL == "" {
		return fmt.Errorf("INKWELL_SERVER_URL not configured")
	}
	cfg.AutoSync = false

	client, err := inkwell.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	start := time.Now()

	if syncBootstrap {
		fmt.Println("Pulling full remote record set...")
		if err := client.Bootstrap(ctx); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}

	fmt.Println("Synchronizing...")
	if err := client.SyncNow(ctx); err != nil {
		if errors.Is(err, inkwell.ErrSyncFailed) {
			status := client.Status()
			fmt.Println(status.LastError)
			fmt.Printf("Pending changes: %d\n", status.PendingCount)
			return nil
		}
		return fmt.Errorf("sync: %w", err)
	}

	fmt.Printf("Sync complete (took %s)\n", time.Since(start).Round(time.Millisecond))

	if stats, err := client.Stats(ctx); err == nil {
		fmt.Printf("Local notes: %d\n", stats.NoteCount)
		fmt.Printf("Pending sync: %d\n", stats.PendingSync)
	}

	return nil
}
