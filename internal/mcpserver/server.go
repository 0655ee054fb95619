// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the citation graph and its metrics to LLM clients via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/perth/internal/apperr"
	"github.com/starford/perth/internal/propservice"
)

// Server wraps the MCP server with Perth tools.
type Server struct {
	mcp *server.MCPServer
	svc *propservice.Service
}

// New creates a new MCP server with all Perth tools registered.
func New(svc *propservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Perth",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_proposals",
		mcp.WithDescription("Full-text search through proposal titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchProposals)

	s.mcp.AddTool(mcp.NewTool("read_proposal",
		mcp.WithDescription("Read one proposal with its metrics and citation edges."),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Proposal number")),
	), s.readProposal)

	s.mcp.AddTool(mcp.NewTool("top_proposals",
		mcp.WithDescription("List the proposals with the highest importance score."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
	), s.topProposals)

	s.mcp.AddTool(mcp.NewTool("get_citers",
		mcp.WithDescription("Find all proposals that cite or relate to the given proposal."),
		mcp.WithNumber("number", mcp.Required(), mcp.Description("Proposal number")),
	), s.getCiters)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchProposals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readProposal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number, err := req.RequireInt("number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetProposal(ctx, number)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("proposal %d not found", number)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) topProposals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	top, err := s.svc.TopByImportance(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(top, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getCiters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number, err := req.RequireInt("number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetProposal(ctx, number)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("proposal %d not found", number)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(detail.Citers, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
