package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inkwellhq/inkwell"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	client, err := inkwell.New(inkwell.Config{
		LocalPath: filepath.Join(t.TempDir(), "notes.db"),
	})
	if err != nil {
		t.Fatalf("New client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return NewServer(client)
}

func TestListTools(t *testing.T) {
	s := newTestServer(t)

	tools := s.ListTools()
	want := map[string]bool{
		"inkwell_list":   false,
		"inkwell_add":    false,
		"inkwell_update": false,
		"inkwell_delete": false,
		"inkwell_sync":   false,
		"inkwell_status": false,
	}
	for _, tool := range tools {
		if _, ok := want[tool.Name]; !ok {
			t.Errorf("unexpected tool %q", tool.Name)
			continue
		}
		want[tool.Name] = true
		if tool.Description == "" {
			t.Errorf("tool %q has no description", tool.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not listed", name)
		}
	}
}

func TestCallToolUnknown(t *testing.T) {
	s := newTestServer(t)

	result, err := s.CallTool(context.Background(), "inkwell_nope", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("unknown tool should produce an error result")
	}
}

func TestAddAndListTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, err := s.CallTool(ctx, "inkwell_add", map[string]any{
		"title":   "meeting notes",
		"content": "discuss roadmap",
	})
	if err != nil {
		t.Fatalf("inkwell_add: %v", err)
	}
	if result.IsError {
		t.Fatalf("inkwell_add returned error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Created note") {
		t.Errorf("unexpected content: %s", result.Content)
	}

	result, err = s.CallTool(ctx, "inkwell_list", nil)
	if err != nil {
		t.Fatalf("inkwell_list: %v", err)
	}
	if !strings.Contains(result.Content, "meeting notes") {
		t.Errorf("list does not contain the note: %s", result.Content)
	}
	if !strings.Contains(result.Content, "*") {
		t.Errorf("unsynced note should be flagged: %s", result.Content)
	}
}

func TestAddToolRequiresTitle(t *testing.T) {
	s := newTestServer(t)

	result, err := s.CallTool(context.Background(), "inkwell_add", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("missing title should produce an error result")
	}
}

func TestUpdateToolKeepsOmittedFields(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, err := s.CallTool(ctx, "inkwell_add", map[string]any{
		"title":   "original",
		"content": "keep me",
	}); err != nil {
		t.Fatalf("inkwell_add: %v", err)
	}

	listed, _ := s.CallTool(ctx, "inkwell_list", nil)
	id := extractID(t, listed.Content)

	result, err := s.CallTool(ctx, "inkwell_update", map[string]any{
		"id":    id,
		"title": "renamed",
	})
	if err != nil {
		t.Fatalf("inkwell_update: %v", err)
	}
	if result.IsError {
		t.Fatalf("inkwell_update returned error: %s", result.Content)
	}

	listed, _ = s.CallTool(ctx, "inkwell_list", nil)
	if !strings.Contains(listed.Content, "renamed") {
		t.Errorf("title not updated: %s", listed.Content)
	}
	if !strings.Contains(listed.Content, "keep me") {
		t.Errorf("omitted content was lost: %s", listed.Content)
	}
}

func TestUpdateToolMissingNote(t *testing.T) {
	s := newTestServer(t)

	result, err := s.CallTool(context.Background(), "inkwell_update", map[string]any{
		"id":    "does-not-exist",
		"title": "x",
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("updating a missing note should produce an error result")
	}
	if !strings.Contains(result.Content, "not found") {
		t.Errorf("unexpected content: %s", result.Content)
	}
}

func TestDeleteTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, err := s.CallTool(ctx, "inkwell_add", map[string]any{"title": "doomed"}); err != nil {
		t.Fatalf("inkwell_add: %v", err)
	}
	listed, _ := s.CallTool(ctx, "inkwell_list", nil)
	id := extractID(t, listed.Content)

	result, err := s.CallTool(ctx, "inkwell_delete", map[string]any{"id": id})
	if err != nil {
		t.Fatalf("inkwell_delete: %v", err)
	}
	if result.IsError {
		t.Fatalf("inkwell_delete returned error: %s", result.Content)
	}

	listed, _ = s.CallTool(ctx, "inkwell_list", nil)
	if !strings.Contains(listed.Content, "No notes.") {
		t.Errorf("note still listed after delete: %s", listed.Content)
	}
}

func TestStatusTool(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, err := s.CallTool(ctx, "inkwell_add", map[string]any{"title": "pending"}); err != nil {
		t.Fatalf("inkwell_add: %v", err)
	}

	result, err := s.CallTool(ctx, "inkwell_status", nil)
	if err != nil {
		t.Fatalf("inkwell_status: %v", err)
	}
	if !strings.Contains(result.Content, "Online: no") {
		t.Errorf("offline client should report Online: no: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Pending changes: 1") {
		t.Errorf("expected one pending change: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Last sync: never") {
		t.Errorf("expected never-synced status: %s", result.Content)
	}
}

func TestSyncToolOffline(t *testing.T) {
	s := newTestServer(t)

	result, err := s.CallTool(context.Background(), "inkwell_sync", nil)
	if err != nil {
		t.Fatalf("inkwell_sync: %v", err)
	}
	if !result.IsError {
		t.Error("sync without a server should produce an error result")
	}
}

// extractID pulls the note ID from an inkwell_list line of the form
// "* <id>  <title>".
func extractID(t *testing.T, listing string) string {
	t.Helper()
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "*" {
			return fields[1]
		}
	}
	t.Fatalf("no note ID in listing: %s", listing)
	return ""
}
