package main

import (
	"context"
	"fmt"
	"os"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import notes from JSON lines",
	Long: `Read notes from a JSONL file and merge them into the local store by
last-writer-wins. Imported notes are queued for the next sync.

Example:
  inkwell import notes.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.AutoSync = false

	client, err := inkwell.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	result, err := client.ImportJSONL(context.Background(), f)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Printf("Imported %d note(s): %d created, %d merged, %d skipped\n",
		result.Total, result.Created, result.Merged, result.Skipped)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e)
	}

	return nil
}
