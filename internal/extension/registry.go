// Package extension holds the static table of per-peer protocol extensions:
// non-standard LSP methods surfaced as additional MCP tools when the
// configured command matches. This is compile-time data, never mutated.
package extension

import "strings"

// ParamShape describes how the dispatcher builds the wire params for an
// extension request out of a tool call's arguments.
type ParamShape int

const (
	// ShapeDocument sends {textDocument: {uri}}.
	ShapeDocument ParamShape = iota
	// ShapeDocumentPosition sends {textDocument: {uri}, position: {line, character}}.
	ShapeDocumentPosition
	// ShapeOpaque forwards the validated input verbatim.
	ShapeOpaque
)

// Descriptor is one statically-declared extension tool.
type Descriptor struct {
	ToolName    string
	WireMethod  string
	Description string
	ParamShape  ParamShape
}

// registryEntry pairs a command substring with the extensions a peer whose
// command line contains that substring is assumed to support.
type registryEntry struct {
	CommandSubstring string
	Extensions       []Descriptor
}

// registry is the static table. Add an entry per language server whose
// non-standard methods are worth surfacing as MCP tools.
var registry = []registryEntry{
	{
		CommandSubstring: "ruby-lsp",
		Extensions: []Descriptor{
			{
				ToolName:    "ruby_discover_tests",
				WireMethod:  "rubyLsp/discoverTests",
				Description: "Discover runnable tests in a Ruby file via ruby-lsp.",
				ParamShape:  ShapeDocument,
			},
			{
				ToolName:    "ruby_workspace_dependencies",
				WireMethod:  "rubyLsp/workspace/dependencies",
				Description: "List resolved gem dependencies known to ruby-lsp.",
				ParamShape:  ShapeOpaque,
			},
		},
	},
	{
		CommandSubstring: "gopls",
		Extensions: []Descriptor{
			{
				ToolName:    "go_package_symbols",
				WireMethod:  "gopls/packageSymbols",
				Description: "List all symbols exported by the package containing a file.",
				ParamShape:  ShapeDocument,
			},
		},
	},
	{
		CommandSubstring: "rust-analyzer",
		Extensions: []Descriptor{
			{
				ToolName:    "rust_expand_macro",
				WireMethod:  "rust-analyzer/expandMacro",
				Description: "Expand the macro invocation at a position.",
				ParamShape:  ShapeDocumentPosition,
			},
			{
				ToolName:    "rust_view_syntax_tree",
				WireMethod:  "rust-analyzer/viewSyntaxTree",
				Description: "View the parsed syntax tree for a document.",
				ParamShape:  ShapeDocument,
			},
		},
	},
	{
		CommandSubstring: "typescript-language-server",
		Extensions: []Descriptor{
			{
				ToolName:    "ts_organize_imports",
				WireMethod:  "_typescript.organizeImports",
				Description: "Organize and sort imports in a TypeScript document.",
				ParamShape:  ShapeDocument,
			},
		},
	},
}

// ForCommand returns the extensions declared for a peer whose command line
// is cmd, matched by substring against the static registry. A peer may match
// zero or more registry entries; their extensions are concatenated.
func ForCommand(cmd []string) []Descriptor {
	joined := strings.Join(cmd, " ")
	var found []Descriptor
	for _, entry := range registry {
		if strings.Contains(joined, entry.CommandSubstring) {
			found = append(found, entry.Extensions...)
		}
	}
	return found
}
