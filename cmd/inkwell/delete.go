package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note",
	Long: `Soft-delete a note. The deletion propagates to the server on the next
sync; the local tombstone is purged after the retention window.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := inkwell.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	id := args[0]
	if err := client.DeleteNote(context.Background(), id); err != nil {
		if errors.Is(err, inkwell.ErrNotFound) {
			fmt.Printf("Note %s not found, nothing changed.\n", id)
			return nil
		}
		return fmt.Errorf("delete note: %w", err)
	}

	fmt.Printf("Deleted %s\n", id)
	return nil
}
