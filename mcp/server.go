// Package mcp provides an optional MCP (Model Context Protocol) tool
// surface for inkwell, so agent frameworks can read and mutate notes
// through the same offline-first client the CLI uses.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inkwellhq/inkwell"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with inkwell tools.
type Server struct {
	client    *inkwell.Client
	mcpServer *server.MCPServer
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with inkwell tools registered.
func NewServer(client *inkwell.Client) *Server {
	s := &Server{client: client}

	s.mcpServer = server.NewMCPServer(
		"inkwell",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "inkwell_list", Description: "List all visible notes, most recently modified first"},
		{Name: "inkwell_add", Description: "Create a new note; it syncs to the server when connectivity permits"},
		{Name: "inkwell_update", Description: "Replace the fields of an existing note"},
		{Name: "inkwell_delete", Description: "Soft-delete a note; the deletion propagates on the next sync"},
		{Name: "inkwell_sync", Description: "Trigger a synchronization cycle with the server"},
		{Name: "inkwell_status", Description: "Report connectivity, pending changes and last sync outcome"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "inkwell_list":
		return s.handleList(ctx, args)
	case "inkwell_add":
		return s.handleAdd(ctx, args)
	case "inkwell_update":
		return s.handleUpdate(ctx, args)
	case "inkwell_delete":
		return s.handleDelete(ctx, args)
	case "inkwell_sync":
		return s.handleSync(ctx, args)
	case "inkwell_status":
		return s.handleStatus(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("inkwell_list",
		mcp.WithDescription("List all visible notes, most recently modified first. Unsynced notes are flagged."),
	), s.mcpHandleList)

	s.mcpServer.AddTool(mcp.NewTool("inkwell_add",
		mcp.WithDescription("Create a new note. The note is persisted locally and transmitted on the next sync."),
		mcp.WithString("title",
			mcp.Description("Note title"),
			mcp.Required(),
		),
		mcp.WithString("content",
			mcp.Description("Note body"),
		),
		mcp.WithString("color",
			mcp.Description("Display tag (hex color)"),
		),
	), s.mcpHandleAdd)

	s.mcpServer.AddTool(mcp.NewTool("inkwell_update",
		mcp.WithDescription("Replace the fields of an existing note. Omitted fields keep their current value."),
		mcp.WithString("id",
			mcp.Description("Note ID"),
			mcp.Required(),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("content",
			mcp.Description("New body"),
		),
		mcp.WithString("color",
			mcp.Description("New display tag (hex color)"),
		),
	), s.mcpHandleUpdate)

	s.mcpServer.AddTool(mcp.NewTool("inkwell_delete",
		mcp.WithDescription("Soft-delete a note. The deletion propagates to the server on the next sync."),
		mcp.WithString("id",
			mcp.Description("Note ID"),
			mcp.Required(),
		),
	), s.mcpHandleDelete)

	s.mcpServer.AddTool(mcp.NewTool("inkwell_sync",
		mcp.WithDescription("Trigger a synchronization cycle: push pending changes, reconcile conflicts, pull resolved records."),
	), s.mcpHandleSync)

	s.mcpServer.AddTool(mcp.NewTool("inkwell_status",
		mcp.WithDescription("Report connectivity, pending change count and the outcome of the last sync."),
	), s.mcpHandleStatus)
}

func (s *Server) mcpHandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleList(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleAdd(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleUpdate(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleDelete(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleSync(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleStatus(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handleList(ctx context.Context, args map[string]any) (*ToolResult, error) {
	notes, err := s.client.ListNotes(ctx)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("list failed: %v", err), IsError: true}, nil
	}

	if len(notes) == 0 {
		return &ToolResult{Content: "No notes."}, nil
	}

	var b strings.Builder
	for _, n := range notes {
		marker := " "
		if !n.IsSynced {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s", marker, n.ID, n.Title)
		if n.Content != "" {
			preview := n.Content
			if idx := strings.IndexByte(preview, '\n'); idx >= 0 {
				preview = preview[:idx]
			}
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			fmt.Fprintf(&b, "  - %s", preview)
		}
		b.WriteByte('\n')
	}
	b.WriteString("\n(* = pending sync)")

	return &ToolResult{Content: b.String()}, nil
}

func (s *Server) handleAdd(ctx context.Context, args map[string]any) (*ToolResult, error) {
	title, ok := args["title"].(string)
	if !ok || title == "" {
		return &ToolResult{Content: "title is required", IsError: true}, nil
	}

	fields := inkwell.NoteFields{Title: title}
	if content, ok := args["content"].(string); ok {
		fields.Content = content
	}
	if color, ok := args["color"].(string); ok {
		fields.ColorHex = color
	}

	note, err := s.client.CreateNote(ctx, fields)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("create failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: fmt.Sprintf("Created note %s", note.ID)}, nil
}

func (s *Server) handleUpdate(ctx context.Context, args map[string]any) (*ToolResult, error) {
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return &ToolResult{Content: "id is required", IsError: true}, nil
	}

	current, err := s.client.GetNote(ctx, id)
	if err != nil {
		if errors.Is(err, inkwell.ErrNotFound) {
			return &ToolResult{Content: fmt.Sprintf("note %s not found", id), IsError: true}, nil
		}
		return &ToolResult{Content: fmt.Sprintf("load failed: %v", err), IsError: true}, nil
	}

	fields := inkwell.NoteFields{
		Title:    current.Title,
		Content:  current.Content,
		ColorHex: current.ColorHex,
	}
	if title, ok := args["title"].(string); ok {
		fields.Title = title
	}
	if content, ok := args["content"].(string); ok {
		fields.Content = content
	}
	if color, ok := args["color"].(string); ok {
		fields.ColorHex = color
	}

	if _, err := s.client.UpdateNote(ctx, id, fields); err != nil {
		return &ToolResult{Content: fmt.Sprintf("update failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: fmt.Sprintf("Updated note %s", id)}, nil
}

func (s *Server) handleDelete(ctx context.Context, args map[string]any) (*ToolResult, error) {
	id, ok := args["id"].(string)
	if !ok || id == "" {
		return &ToolResult{Content: "id is required", IsError: true}, nil
	}

	if err := s.client.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, inkwell.ErrNotFound) {
			return &ToolResult{Content: fmt.Sprintf("note %s not found", id), IsError: true}, nil
		}
		return &ToolResult{Content: fmt.Sprintf("delete failed: %v", err), IsError: true}, nil
	}

	return &ToolResult{Content: fmt.Sprintf("Deleted note %s", id)}, nil
}

func (s *Server) handleSync(ctx context.Context, args map[string]any) (*ToolResult, error) {
	start := time.Now()
	if err := s.client.SyncNow(ctx); err != nil {
		if errors.Is(err, inkwell.ErrOffline) {
			return &ToolResult{Content: "No sync server configured; notes stay local.", IsError: true}, nil
		}
		return &ToolResult{Content: fmt.Sprintf("sync failed: %v", err), IsError: true}, nil
	}

	status := s.client.Status()
	return &ToolResult{Content: fmt.Sprintf("Sync complete in %s; %d change(s) still pending",
		time.Since(start).Round(time.Millisecond), status.PendingCount)}, nil
}

func (s *Server) handleStatus(ctx context.Context, args map[string]any) (*ToolResult, error) {
	status := s.client.Status()

	var b strings.Builder
	if status.Online {
		b.WriteString("Online: yes\n")
	} else {
		b.WriteString("Online: no\n")
	}
	fmt.Fprintf(&b, "Syncing: %v\n", status.Syncing)
	fmt.Fprintf(&b, "Pending changes: %d\n", status.PendingCount)
	if !status.LastSyncAt.IsZero() {
		fmt.Fprintf(&b, "Last sync: %s\n", status.LastSyncAt.Format(time.RFC3339))
	} else {
		b.WriteString("Last sync: never\n")
	}
	if status.LastError != "" {
		fmt.Fprintf(&b, "Last error: %s\n", status.LastError)
	}

	return &ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}
