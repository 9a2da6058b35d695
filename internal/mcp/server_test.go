package mcp

import (
	"context"
	"testing"

	"github.com/ibzarain/redline/internal/config"
	"github.com/ibzarain/redline/internal/document"
	"github.com/ibzarain/redline/internal/engine"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	doc := document.FromParagraphs([]document.Paragraph{
		{Text: "ARTICLE A-1 DEFINITIONS"},
		{Text: "the term of this agreement shall commence on the effective date.", ListLabel: "1.1"},
	})
	session := engine.New(doc, config.DefaultConfig(), nil)
	return NewServer(session, "test")
}

func TestNewServerRegistersTools(t *testing.T) {
	s := testServer(t)
	if s.server == nil {
		t.Fatal("server not constructed")
	}
}

func TestHandlersValidateArguments(t *testing.T) {
	s := testServer(t)
	ctx := context.Background()

	if _, _, err := s.handleInstruction(ctx, nil, InstructionArgs{}); err == nil {
		t.Error("empty instruction must be rejected")
	}
	if _, _, err := s.handleLocateArticle(ctx, nil, LocateArticleArgs{}); err == nil {
		t.Error("empty article name must be rejected")
	}
	if _, _, err := s.handleAccept(ctx, nil, ChangeIDArgs{}); err == nil {
		t.Error("empty change ID must be rejected")
	}
}

func TestHandlersReturnStructuredResults(t *testing.T) {
	s := testServer(t)
	ctx := context.Background()

	_, out, err := s.handleInstruction(ctx, nil, InstructionArgs{Text: `Replace "shall commence" with "shall begin"`})
	if err != nil {
		t.Fatalf("handleInstruction: %v", err)
	}
	res, ok := out.(engine.Result)
	if !ok || !res.Success {
		t.Fatalf("result = %+v", out)
	}

	_, out, err = s.handleLocateArticle(ctx, nil, LocateArticleArgs{Name: "A-99"})
	if err != nil {
		t.Fatalf("handleLocateArticle: %v", err)
	}
	if res := out.(engine.Result); res.Success {
		t.Error("missing article must be a failure result, not a transport error")
	}
}
