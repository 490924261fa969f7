package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkwellhq/inkwell"
	"github.com/spf13/cobra"
)

var listShowID bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Long:  `List all visible notes, most recently modified first.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listShowID, "ids", false, "Show note IDs")
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := inkwell.New(loadConfig())
	if err != nil {
		return fmt.Errorf("initialize client: %w", err)
	}
	defer client.Close()

	notes, err := client.ListNotes(context.Background())
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	if len(notes) == 0 {
		fmt.Println("No notes.")
		return nil
	}

	for _, n := range notes {
		marker := " "
		if !n.IsSynced {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s", marker, n.Title)
		if listShowID {
			line = fmt.Sprintf("%s %s  %s", marker, n.ID, n.Title)
		}
		if n.Content != "" {
			preview := n.Content
			if idx := strings.IndexByte(preview, '\n'); idx >= 0 {
				preview = preview[:idx]
			}
			if len(preview) > 60 {
				preview = preview[:60] + "..."
			}
			line += "  - " + preview
		}
		fmt.Println(line)
	}

	pending := 0
	for _, n := range notes {
		if !n.IsSynced {
			pending++
		}
	}
	if pending > 0 {
		fmt.Printf("\n%d note(s) pending sync (*)\n", pending)
	}

	return nil
}
