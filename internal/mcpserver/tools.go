package mcpserver

import (
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsdk "github.com/mark3labs/mcp-go/server"

	"github.com/wiredcode/lsp-mcp-bridge/internal/extension"
)

// buildTools assembles the standard 17-tool catalog plus one tool per
// extension the configured peers declared at construction time.
func (s *Server) buildTools() []mcpsdk.ServerTool {
	tools := []mcpsdk.ServerTool{
		s.positionTool("goto_definition", "Find where a symbol at a position is defined."),
		s.positionTool("goto_type_definition", "Find where the type of a symbol at a position is defined."),
		s.positionTool("goto_implementation", "Find implementations of an interface or abstract method at a position."),
		s.positionTool("goto_declaration", "Find the declaration of a symbol at a position."),
		s.positionTool("find_references", "Find every reference to the symbol at a position."),
		s.positionTool("hover", "Show type information and documentation for the symbol at a position."),
		s.positionTool("signature_help", "Show the signature of the function call at a position."),
		s.fileTool("document_symbols", "List every symbol declared in a document."),
		s.workspaceSymbolsTool(),
		s.codeActionsTool(),
		s.positionTool("rename_prepare", "Check whether the symbol at a position can be renamed, and its current range."),
		s.renameTool(),
		s.positionTool("call_hierarchy_incoming", "List callers of the function at a position."),
		s.positionTool("call_hierarchy_outgoing", "List functions called by the function at a position."),
		s.positionTool("type_hierarchy", "List supertypes and subtypes of the type at a position."),
		s.fileTool("open_file", "Open a file with its owning language server, so later tool calls see fresh diagnostics for it."),
		s.diagnosticsTool(),
	}

	for _, ext := range s.dispatcher.ExtensionTools() {
		tools = append(tools, s.extensionTool(ext))
	}
	return tools
}

// fileTool builds a tool taking only a required "file" parameter.
func (s *Server) fileTool(name, description string) mcpsdk.ServerTool {
	tool := mcplib.NewTool(name,
		mcplib.WithDescription(description),
		mcplib.WithString("file",
			mcplib.Required(),
			mcplib.Description("Path to the file, relative to the project root."),
		),
	)
	return mcpsdk.ServerTool{Tool: tool, Handler: s.callTool(name)}
}

// positionTool builds a tool taking the {file, line, col} shape shared by
// every navigation and hierarchy tool.
func (s *Server) positionTool(name, description string) mcpsdk.ServerTool {
	tool := mcplib.NewTool(name,
		mcplib.WithDescription(description),
		mcplib.WithString("file",
			mcplib.Required(),
			mcplib.Description("Path to the file, relative to the project root."),
		),
		mcplib.WithNumber("line",
			mcplib.Required(),
			mcplib.Description("1-based line number."),
		),
		mcplib.WithNumber("col",
			mcplib.Required(),
			mcplib.Description("1-based column number."),
		),
	)
	return mcpsdk.ServerTool{Tool: tool, Handler: s.callTool(name)}
}

func (s *Server) workspaceSymbolsTool() mcpsdk.ServerTool {
	tool := mcplib.NewTool("workspace_symbols",
		mcplib.WithDescription("Search every running language server for symbols matching a query."),
		mcplib.WithString("query",
			mcplib.Required(),
			mcplib.Description("Symbol name or substring to search for."),
		),
	)
	return mcpsdk.ServerTool{Tool: tool, Handler: s.callTool("workspace_symbols")}
}

func (s *Server) codeActionsTool() mcpsdk.ServerTool {
	tool := mcplib.NewTool("code_actions",
		mcplib.WithDescription("List available quick fixes and refactorings for a range."),
		mcplib.WithString("file",
			mcplib.Required(),
			mcplib.Description("Path to the file, relative to the project root."),
		),
		mcplib.WithNumber("line",
			mcplib.Required(),
			mcplib.Description("1-based start line number."),
		),
		mcplib.WithNumber("col",
			mcplib.Required(),
			mcplib.Description("1-based start column number."),
		),
		mcplib.WithNumber("endLine",
			mcplib.Description("1-based end line number. Defaults to the start line."),
		),
		mcplib.WithNumber("endCol",
			mcplib.Description("1-based end column number. Defaults to the start column."),
		),
	)
	return mcpsdk.ServerTool{Tool: tool, Handler: s.callTool("code_actions")}
}

func (s *Server) renameTool() mcpsdk.ServerTool {
	tool := mcplib.NewTool("rename",
		mcplib.WithDescription("Rename the symbol at a position across the workspace."),
		mcplib.WithString("file",
			mcplib.Required(),
			mcplib.Description("Path to the file, relative to the project root."),
		),
		mcplib.WithNumber("line",
			mcplib.Required(),
			mcplib.Description("1-based line number."),
		),
		mcplib.WithNumber("col",
			mcplib.Required(),
			mcplib.Description("1-based column number."),
		),
		mcplib.WithString("newName",
			mcplib.Required(),
			mcplib.Description("The new name for the symbol."),
		),
	)
	return mcpsdk.ServerTool{Tool: tool, Handler: s.callTool("rename")}
}

func (s *Server) diagnosticsTool() mcpsdk.ServerTool {
	tool := mcplib.NewTool("diagnostics",
		mcplib.WithDescription("Get diagnostics for one file (waiting briefly for a fresh report), or the cached diagnostics of every file with diagnostics across all running peers."),
		mcplib.WithString("file",
			mcplib.Description("Path to the file, relative to the project root. Omit to get the cached diagnostics of every file a running peer has reported problems for."),
		),
	)
	return mcpsdk.ServerTool{Tool: tool, Handler: s.callTool("diagnostics")}
}

// extensionTool builds a tool for a declared protocol extension, shaping its
// parameters the same way the dispatcher builds the extension's wire params.
func (s *Server) extensionTool(ext extension.Descriptor) mcpsdk.ServerTool {
	opts := []mcplib.ToolOption{mcplib.WithDescription(ext.Description)}

	switch ext.ParamShape {
	case extension.ShapeDocument:
		opts = append(opts, mcplib.WithString("file",
			mcplib.Required(),
			mcplib.Description("Path to the file, relative to the project root."),
		))
	case extension.ShapeDocumentPosition:
		opts = append(opts,
			mcplib.WithString("file",
				mcplib.Required(),
				mcplib.Description("Path to the file, relative to the project root."),
			),
			mcplib.WithNumber("line",
				mcplib.Required(),
				mcplib.Description("1-based line number."),
			),
			mcplib.WithNumber("col",
				mcplib.Required(),
				mcplib.Description("1-based column number."),
			),
		)
	}

	tool := mcplib.NewTool(ext.ToolName, opts...)
	return mcpsdk.ServerTool{Tool: tool, Handler: s.callTool(ext.ToolName)}
}
