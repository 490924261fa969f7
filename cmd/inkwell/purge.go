package main

import (
	"context"
	"fmt"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Purge expired tombstones",
	Long: `Physically remove soft-deleted notes whose deletion the server has
acknowledged and whose retention window has elapsed. Runs automatically
at startup; this command forces an extra sweep.`,
	RunE: runPurge,
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.AutoSync = false

	client, err := inkwell.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	n, err := client.PurgeTombstones(context.Background())
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	fmt.Printf("Purged %d tombstone(s)\n", n)
	return nil
}
