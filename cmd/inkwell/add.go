package main

import (
	"context"
	"fmt"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var (
	addContent string
	addColor   string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a new note",
	Long: `Create a new note. The note is persisted locally and transmitted on
the next sync.

Example:
  inkwell add "Groceries" --content "milk, eggs" --color "#ffcc00"`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addContent, "content", "", "Note body")
	addCmd.Flags().StringVar(&addColor, "color", "", "Display tag (hex color)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	client, err := inkwell.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	note, err := client.CreateNote(context.Background(), inkwell.NoteFields{
		Title:    args[0],
		Content:  addContent,
		ColorHex: addColor,
	})
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	fmt.Printf("Created %s\n", note.ID)
	return nil
}
