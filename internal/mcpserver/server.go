// Package mcpserver exposes the markup transform as an MCP tool over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/enhimg/internal/enhance"
)

const (
	toolName        = "enhance_markup"
	defaultFilename = "Component.svelte"
)

// Server wraps one transformer behind the enhance_markup tool.
type Server struct {
	mcp    *server.MCPServer
	tr     *enhance.Transformer
	logger *slog.Logger
}

// New builds a server. Each tool call runs its own transform pass, so
// nothing resolved for one call is visible to the next.
func New(tr *enhance.Transformer, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		mcp:    server.NewMCPServer("enhimg", version, server.WithToolCapabilities(false)),
		tr:     tr,
		logger: logger,
	}
	s.mcp.AddTool(mcp.NewTool(toolName,
		mcp.WithDescription("Rewrite <enhanced:img> elements in a component into <picture> markup."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Component source text")),
		mcp.WithString("filename", mcp.Description("Path of the component, used to resolve relative image references")),
		mcp.WithBoolean("sourcemap", mcp.Description("Also return a v3 source map")),
	), s.handleEnhance)
	return s
}

// ServeStdio blocks serving requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleEnhance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", defaultFilename)

	out, err := s.tr.Transform(ctx, filename, []byte(source))
	if err != nil {
		s.logger.Warn("transform failed", "file", filename, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Debug("transformed", "file", filename, "rewritten", out.Stats.Rewritten, "skipped", out.Stats.Skipped)

	res := mcp.NewToolResultText(out.Code)
	if req.GetBool("sourcemap", false) {
		data, err := out.SourceMap().JSON()
		if err != nil {
			return nil, fmt.Errorf("encode source map: %w", err)
		}
		res.Content = append(res.Content, mcp.NewTextContent(string(data)))
	}
	return res, nil
}
