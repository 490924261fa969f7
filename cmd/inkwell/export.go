package main

import (
	"context"
	"fmt"
	"os"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export notes as JSON lines",
	Long: `Write all visible notes to stdout (or a file), one JSON object per
line.

Example:
  inkwell export -o notes.jsonl`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	cfg.AutoSync = false

	client, err := inkwell.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	n, err := client.ExportJSONL(context.Background(), out)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if exportOutput != "" {
		fmt.Fprintf(os.Stderr, "Exported %d note(s) to %s\n", n, exportOutput)
	}
	return nil
}
