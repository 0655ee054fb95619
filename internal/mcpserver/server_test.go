package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/perth/internal/metrics"
	"github.com/starford/perth/internal/pipeline"
	"github.com/starford/perth/internal/propservice"
	"github.com/starford/perth/internal/testutil"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir, source := testutil.TestCorpus(t)
	testutil.WriteProposal(t, dir, 1, "First Proposal", "See :pep:`2` for the details.")
	testutil.WriteProposal(t, dir, 2, "Second Proposal", "Nothing cited here.")

	db := testutil.TestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipe := pipeline.New(db, metrics.DefaultOptions(), logger)
	svc := propservice.NewService(db, pipe, source, logger)
	if _, err := svc.Recompute(context.Background()); err != nil {
		t.Fatalf("initial recompute failed: %v", err)
	}
	return New(svc)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

func TestReadProposal(t *testing.T) {
	s := newTestServer(t)

	res, err := s.readProposal(context.Background(), callRequest("read_proposal", map[string]any{"number": 2}))
	if err != nil {
		t.Fatalf("readProposal() error: %v", err)
	}
	if res.IsError {
		t.Fatalf("readProposal() returned tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Second Proposal") {
		t.Errorf("result = %s, want title included", text)
	}
	if !strings.Contains(text, `"in_degree": 1`) {
		t.Errorf("result = %s, want metrics included", text)
	}
}

func TestReadProposalNotFound(t *testing.T) {
	s := newTestServer(t)
	res, err := s.readProposal(context.Background(), callRequest("read_proposal", map[string]any{"number": 999}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for unknown proposal")
	}
}

func TestReadProposalMissingArgument(t *testing.T) {
	s := newTestServer(t)
	res, err := s.readProposal(context.Background(), callRequest("read_proposal", map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for missing number argument")
	}
}

func TestSearchProposals(t *testing.T) {
	s := newTestServer(t)
	res, err := s.searchProposals(context.Background(), callRequest("search_proposals", map[string]any{"query": "details"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("searchProposals() returned tool error: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, `"id": 1`) {
		t.Errorf("result = %s, want proposal 1", text)
	}
}

func TestTopProposals(t *testing.T) {
	s := newTestServer(t)
	res, err := s.topProposals(context.Background(), callRequest("top_proposals", map[string]any{"limit": 1}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("topProposals() returned tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	// Proposal 2 is the only cited one and must rank first.
	if !strings.Contains(text, `"id": 2`) || strings.Contains(text, `"id": 1`) {
		t.Errorf("result = %s, want only proposal 2", text)
	}
}

func TestGetCiters(t *testing.T) {
	s := newTestServer(t)
	res, err := s.getCiters(context.Background(), callRequest("get_citers", map[string]any{"number": 2}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("getCiters() returned tool error: %s", resultText(t, res))
	}
	if text := resultText(t, res); !strings.Contains(text, `"source": 1`) {
		t.Errorf("result = %s, want the citing proposal", text)
	}
}
