// Package mcpserver exposes a Dispatcher as an MCP tool server over stdio,
// using mark3labs/mcp-go for the protocol layer. It owns no LSP state of its
// own: every tool call is a thin translation into a dispatch.Dispatcher
// call and a JSON-wrapped reply.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsdk "github.com/mark3labs/mcp-go/server"

	"github.com/wiredcode/lsp-mcp-bridge/internal/dispatch"
	"github.com/wiredcode/lsp-mcp-bridge/internal/logging"
)

// Server wires a Dispatcher into an MCP server exposed over stdio.
type Server struct {
	mcp        *mcpsdk.MCPServer
	dispatcher *dispatch.Dispatcher
	logger     interface {
		Infow(msg string, kv ...any)
		Errorw(msg string, kv ...any)
	}
}

// New builds a Server advertising name/version, with the standard tool
// catalog plus every extension tool the configured peers declare.
func New(name, version string, d *dispatch.Dispatcher) *Server {
	s := &Server{
		dispatcher: d,
		logger:     logging.Component("mcpserver"),
	}
	s.mcp = mcpsdk.NewMCPServer(
		name,
		version,
		mcpsdk.WithToolCapabilities(true),
		mcpsdk.WithLogging(),
		mcpsdk.WithRecovery(),
	)
	s.mcp.AddTools(s.buildTools()...)
	return s
}

// ServeStdio blocks, serving MCP requests over stdin/stdout until the peer
// closes the connection or the process receives a shutdown signal.
func (s *Server) ServeStdio() error {
	return mcpsdk.ServeStdio(s.mcp)
}

// callTool is the common glue between a decoded CallToolRequest and the
// Dispatcher: validate/invoke, then marshal the result (or error) into the
// {content, isError} shape spec.md §7 requires.
func (s *Server) callTool(toolName string) mcpsdk.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		result, err := s.dispatcher.Call(ctx, toolName, req.GetArguments())
		if err != nil {
			s.logger.Errorw("tool call failed", "tool", toolName, "error", err)
			return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("%s failed", toolName), err), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
		}
		return mcplib.NewToolResultText(string(data)), nil
	}
}
