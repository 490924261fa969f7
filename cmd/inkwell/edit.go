package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var (
	editTitle   string
	editContent string
	editColor   string
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a note",
	Long: `Replace a note's fields. Unspecified flags keep the current value.

Example:
  inkwell edit 01J2... --title "Groceries (updated)"`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVar(&editContent, "content", "", "New body")
	editCmd.Flags().StringVar(&editColor, "color", "", "New display tag (hex color)")
}

func runEdit(cmd *cobra.Command, args []string) error {
	client, err := inkwell.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	ctx := context.Background()
	id := args[0]

	current, err := client.GetNote(ctx, id)
	if err != nil {
		if errors.Is(err, inkwell.ErrNotFound) {
			fmt.Printf("Note %s not found, nothing changed.\n", id)
			return nil
		}
		return fmt.Errorf("load note: %w", err)
	}

	fields := inkwell.NoteFields{
		Title:    current.Title,
		Content:  current.Content,
		ColorHex: current.ColorHex,
	}
	if cmd.Flags().Changed("title") {
		fields.Title = editTitle
	}
	if cmd.Flags().Changed("content") {
		fields.Content = editContent
	}
	if cmd.Flags().Changed("color") {
		fields.ColorHex = editColor
	}

	if _, err := client.UpdateNote(ctx, id, fields); err != nil {
		if errors.Is(err, inkwell.ErrNotFound) {
			fmt.Printf("Note %s not found, nothing changed.\n", id)
			return nil
		}
		return fmt.Errorf("update note: %w", err)
	}

	fmt.Printf("Updated %s\n", id)
	return nil
}
