// Package mcp exposes the edit engine to agents as MCP tools over stdio.
// The tool layer is a thin adapter: all invariants live in the engine.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ibzarain/redline/internal/engine"
)

// Server wraps the MCP server with one editing session.
type Server struct {
	session *engine.Session
	server  *mcp.Server
}

// NewServer creates a redline MCP server over an existing session.
func NewServer(session *engine.Session, version string) *Server {
	s := &Server{session: session}

	impl := &mcp.Implementation{
		Name:    "redline",
		Version: version,
	}

	s.server = mcp.NewServer(impl, nil)
	s.registerTools()

	return s
}

// Run starts the MCP server on stdio.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "redline_instruction",
		Description: "Start processing a new editing instruction. CALL THIS FIRST for every instruction: " +
			"it scopes all subsequent searches to the terms the instruction actually uses. " +
			"Reads and edits issued before this call run unscoped.",
	}, s.handleInstruction)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "redline_locate_article",
		Description: "Locate a named article (e.g. 'A-3' or 'Article A-3') and bound the working range to it. " +
			"All subsequent search and edit operations stay inside the located article. " +
			"A missing article is a normal failure, not an error - check success before proceeding.",
	}, s.handleLocateArticle)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "redline_read",
		Description: "Read the text a locator resolves to inside the working range. REQUIRED before every edit: " +
			"each mutation consumes one fresh read, so read again after every edit. " +
			"Numbered-paragraph labels like '1.2' resolve to the full numbered paragraph. " +
			"On failure the result lists every search variant attempted plus a bounded preview of the range.",
	}, s.handleRead)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "redline_edit",
		Description: "Replace located text with new text as a pending visual diff (green new text, " +
			"struck-through red old text). Nothing is committed until the change is accepted. " +
			"Only the first match is edited when the old text occurs more than once.",
	}, s.handleEdit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "redline_edit_range",
		Description: "Replace a numbered-list paragraph span in place, preserving list numbering. " +
			"from_label and to_label are numbered-paragraph labels like '1.2' and '1.4'.",
	}, s.handleEditRange)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "redline_insert",
		Description: "Insert a new paragraph after the located anchor. The text is written immediately " +
			"and marked as a pending proposal; rejecting the change removes it again.",
	}, s.handleInsert)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "redline_delete",
		Description: "Mark located text for deletion (struck through, still visible). " +
			"The text leaves the document only when the change is accepted.",
	}, s.handleDelete)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "redline_pending",
		Description: "List all pending changes with inline previews, in the order they were proposed.",
	}, s.handlePending)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "redline_accept",
		Description: "Accept one pending change by ID: the new text stays, the struck-through old text is removed.",
	}, s.handleAccept)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "redline_reject",
		Description: "Reject one pending change by ID: the proposed text is removed and the original text restored.",
	}, s.handleReject)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "redline_accept_all",
		Description: "Accept every pending change in proposal order. Individual failures are reported per change and do not abort the rest.",
	}, s.handleAcceptAll)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "redline_reject_all",
		Description: "Reject every pending change in proposal order. Individual failures are reported per change and do not abort the rest.",
	}, s.handleRejectAll)
}

// InstructionArgs defines the input for redline_instruction.
type InstructionArgs struct {
	Text string `json:"text" jsonschema:"The full instruction text being processed"`
}

func (s *Server) handleInstruction(ctx context.Context, req *mcp.CallToolRequest, args InstructionArgs) (*mcp.CallToolResult, any, error) {
	if args.Text == "" {
		return nil, nil, fmt.Errorf("instruction text is required")
	}
	return nil, s.session.BeginInstruction(args.Text), nil
}

// LocateArticleArgs defines the input for redline_locate_article.
type LocateArticleArgs struct {
	Name string `json:"name" jsonschema:"Article name, with or without the ARTICLE keyword (e.g. 'A-3')"`
}

func (s *Server) handleLocateArticle(ctx context.Context, req *mcp.CallToolRequest, args LocateArticleArgs) (*mcp.CallToolResult, any, error) {
	if args.Name == "" {
		return nil, nil, fmt.Errorf("article name is required")
	}
	return nil, s.session.LocateArticle(ctx, args.Name), nil
}

// ReadArgs defines the input for redline_read.
type ReadArgs struct {
	Query string `json:"query" jsonschema:"Text to locate: a quoted phrase from the instruction or a numbered label like '1.2'"`
}

func (s *Server) handleRead(ctx context.Context, req *mcp.CallToolRequest, args ReadArgs) (*mcp.CallToolResult, any, error) {
	return nil, s.session.ReadSection(ctx, args.Query), nil
}

// EditArgs defines the input for redline_edit.
type EditArgs struct {
	Locator string `json:"locator" jsonschema:"Text or numbered label locating what to replace"`
	NewText string `json:"new_text" jsonschema:"The replacement text"`
}

func (s *Server) handleEdit(ctx context.Context, req *mcp.CallToolRequest, args EditArgs) (*mcp.CallToolResult, any, error) {
	return nil, s.session.EditText(ctx, args.Locator, args.NewText), nil
}

// EditRangeArgs defines the input for redline_edit_range.
type EditRangeArgs struct {
	FromLabel string `json:"from_label" jsonschema:"First numbered-paragraph label in the span (e.g. '1.2')"`
	ToLabel   string `json:"to_label,omitempty" jsonschema:"Last label in the span; defaults to from_label"`
	NewText   string `json:"new_text" jsonschema:"Replacement text, one line per paragraph"`
}

func (s *Server) handleEditRange(ctx context.Context, req *mcp.CallToolRequest, args EditRangeArgs) (*mcp.CallToolResult, any, error) {
	return nil, s.session.EditRange(ctx, args.FromLabel, args.ToLabel, args.NewText), nil
}

// InsertArgs defines the input for redline_insert.
type InsertArgs struct {
	After string `json:"after" jsonschema:"Text or numbered label locating the paragraph to insert after"`
	Text  string `json:"text" jsonschema:"The new paragraph text"`
}

func (s *Server) handleInsert(ctx context.Context, req *mcp.CallToolRequest, args InsertArgs) (*mcp.CallToolResult, any, error) {
	return nil, s.session.InsertText(ctx, args.After, args.Text), nil
}

// DeleteArgs defines the input for redline_delete.
type DeleteArgs struct {
	Locator string `json:"locator" jsonschema:"Text or numbered label locating what to delete"`
}

func (s *Server) handleDelete(ctx context.Context, req *mcp.CallToolRequest, args DeleteArgs) (*mcp.CallToolResult, any, error) {
	return nil, s.session.DeleteText(ctx, args.Locator), nil
}

// PendingArgs defines the input for redline_pending (no arguments).
type PendingArgs struct{}

func (s *Server) handlePending(ctx context.Context, req *mcp.CallToolRequest, args PendingArgs) (*mcp.CallToolResult, any, error) {
	return nil, s.session.PendingChanges(), nil
}

// ChangeIDArgs identifies one tracked change.
type ChangeIDArgs struct {
	ID string `json:"id" jsonschema:"The change ID returned when the edit was proposed"`
}

func (s *Server) handleAccept(ctx context.Context, req *mcp.CallToolRequest, args ChangeIDArgs) (*mcp.CallToolResult, any, error) {
	if args.ID == "" {
		return nil, nil, fmt.Errorf("change ID is required")
	}
	return nil, s.session.AcceptChange(ctx, args.ID), nil
}

func (s *Server) handleReject(ctx context.Context, req *mcp.CallToolRequest, args ChangeIDArgs) (*mcp.CallToolResult, any, error) {
	if args.ID == "" {
		return nil, nil, fmt.Errorf("change ID is required")
	}
	return nil, s.session.RejectChange(ctx, args.ID), nil
}

// BulkArgs defines the input for the bulk operations (no arguments).
type BulkArgs struct{}

func (s *Server) handleAcceptAll(ctx context.Context, req *mcp.CallToolRequest, args BulkArgs) (*mcp.CallToolResult, any, error) {
	return nil, s.session.AcceptAll(ctx), nil
}

func (s *Server) handleRejectAll(ctx context.Context, req *mcp.CallToolRequest, args BulkArgs) (*mcp.CallToolResult, any, error) {
	return nil, s.session.RejectAll(ctx), nil
}
