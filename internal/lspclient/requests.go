package lspclient

import (
	"context"
	"encoding/json"

	"go.lsp.dev/protocol"

	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
)

func docIdent(path string) protocol.TextDocumentIdentifier {
	return protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(langutil.PathToURI(path))}
}

func position(line, character int) protocol.Position {
	return protocol.Position{Line: uint32(line), Character: uint32(character)}
}

// Definition returns the raw goto-definition reply, which may be either
// Location, []Location, or []LocationLink depending on the peer; the
// dispatcher normalizes by structural presence of the discriminating fields.
func (c *Client) Definition(ctx context.Context, path string, line, character int) (json.RawMessage, error) {
	return c.callRaw(ctx, "textDocument/definition", &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	})
}

// TypeDefinition mirrors Definition for textDocument/typeDefinition.
func (c *Client) TypeDefinition(ctx context.Context, path string, line, character int) (json.RawMessage, error) {
	return c.callRaw(ctx, "textDocument/typeDefinition", &protocol.TypeDefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	})
}

// Implementation mirrors Definition for textDocument/implementation.
func (c *Client) Implementation(ctx context.Context, path string, line, character int) (json.RawMessage, error) {
	return c.callRaw(ctx, "textDocument/implementation", &protocol.ImplementationParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	})
}

// Declaration mirrors Definition for textDocument/declaration.
func (c *Client) Declaration(ctx context.Context, path string, line, character int) (json.RawMessage, error) {
	return c.callRaw(ctx, "textDocument/declaration", &protocol.DeclarationParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	})
}

// References always requests the declaration alongside usages
// (includeDeclaration=true), per spec.md §4.1.
func (c *Client) References(ctx context.Context, path string, line, character int) ([]protocol.Location, error) {
	var result []protocol.Location
	err := c.call(ctx, "textDocument/references", &protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: true},
	}, &result)
	return result, err
}

// Hover returns the raw hover reply; contents may be a string, MarkupContent,
// or MarkedString[], normalized by the dispatcher.
func (c *Client) Hover(ctx context.Context, path string, line, character int) (json.RawMessage, error) {
	return c.callRaw(ctx, "textDocument/hover", &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	})
}

// SignatureHelp returns signature help at a position.
func (c *Client) SignatureHelp(ctx context.Context, path string, line, character int) (*protocol.SignatureHelp, error) {
	var result protocol.SignatureHelp
	err := c.call(ctx, "textDocument/signatureHelp", &protocol.SignatureHelpParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	}, &result)
	return &result, err
}

// DocumentSymbols returns the raw reply; the peer may answer with
// []DocumentSymbol (hierarchical) or []SymbolInformation (flat).
func (c *Client) DocumentSymbols(ctx context.Context, path string) (json.RawMessage, error) {
	return c.callRaw(ctx, "textDocument/documentSymbol", &protocol.DocumentSymbolParams{
		TextDocument: docIdent(path),
	})
}

// WorkspaceSymbols returns matching symbols across the peer's whole
// workspace for query.
func (c *Client) WorkspaceSymbols(ctx context.Context, query string) (json.RawMessage, error) {
	return c.callRaw(ctx, "workspace/symbol", &protocol.WorkspaceSymbolParams{Query: query})
}

// CodeActions returns the raw reply; each entry may be a Command or a
// CodeAction, distinguished by the presence of an "edit"/"kind" field.
func (c *Client) CodeActions(ctx context.Context, path string, startLine, startChar, endLine, endChar int, diagnostics []protocol.Diagnostic) (json.RawMessage, error) {
	return c.callRaw(ctx, "textDocument/codeAction", &protocol.CodeActionParams{
		TextDocument: docIdent(path),
		Range: protocol.Range{
			Start: position(startLine, startChar),
			End:   position(endLine, endChar),
		},
		Context: protocol.CodeActionContext{Diagnostics: diagnostics},
	})
}

// PrepareRename returns the raw reply; peers answer with a Range, a
// {range, placeholder} object, a {defaultBehavior} object, or null
// (rename not possible here) — normalized by the dispatcher.
func (c *Client) PrepareRename(ctx context.Context, path string, line, character int) (json.RawMessage, error) {
	return c.callRaw(ctx, "textDocument/prepareRename", &protocol.PrepareRenameParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	})
}

// Rename requests a workspace edit renaming the symbol at a position.
func (c *Client) Rename(ctx context.Context, path string, line, character int, newName string) (*protocol.WorkspaceEdit, error) {
	var result protocol.WorkspaceEdit
	err := c.call(ctx, "textDocument/rename", &protocol.RenameParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
		NewName: newName,
	}, &result)
	return &result, err
}

// PrepareCallHierarchy resolves the call hierarchy item(s) at a position,
// the seed for IncomingCalls/OutgoingCalls.
func (c *Client) PrepareCallHierarchy(ctx context.Context, path string, line, character int) ([]protocol.CallHierarchyItem, error) {
	var result []protocol.CallHierarchyItem
	err := c.call(ctx, "textDocument/prepareCallHierarchy", &protocol.CallHierarchyPrepareParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	}, &result)
	return result, err
}

// IncomingCalls returns callers of item.
func (c *Client) IncomingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyIncomingCall, error) {
	var result []protocol.CallHierarchyIncomingCall
	err := c.call(ctx, "callHierarchy/incomingCalls", &protocol.CallHierarchyIncomingCallsParams{Item: item}, &result)
	return result, err
}

// OutgoingCalls returns callees of item.
func (c *Client) OutgoingCalls(ctx context.Context, item protocol.CallHierarchyItem) ([]protocol.CallHierarchyOutgoingCall, error) {
	var result []protocol.CallHierarchyOutgoingCall
	err := c.call(ctx, "callHierarchy/outgoingCalls", &protocol.CallHierarchyOutgoingCallsParams{Item: item}, &result)
	return result, err
}

// PrepareTypeHierarchy resolves the type hierarchy item(s) at a position.
func (c *Client) PrepareTypeHierarchy(ctx context.Context, path string, line, character int) ([]protocol.TypeHierarchyItem, error) {
	var result []protocol.TypeHierarchyItem
	err := c.call(ctx, "textDocument/prepareTypeHierarchy", &protocol.TypeHierarchyPrepareParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: docIdent(path),
			Position:     position(line, character),
		},
	}, &result)
	return result, err
}

// Supertypes returns the supertypes of item.
func (c *Client) Supertypes(ctx context.Context, item protocol.TypeHierarchyItem) ([]protocol.TypeHierarchyItem, error) {
	var result []protocol.TypeHierarchyItem
	err := c.call(ctx, "typeHierarchy/supertypes", &protocol.TypeHierarchySupertypesParams{Item: item}, &result)
	return result, err
}

// Subtypes returns the subtypes of item.
func (c *Client) Subtypes(ctx context.Context, item protocol.TypeHierarchyItem) ([]protocol.TypeHierarchyItem, error) {
	var result []protocol.TypeHierarchyItem
	err := c.call(ctx, "typeHierarchy/subtypes", &protocol.TypeHierarchySubtypesParams{Item: item}, &result)
	return result, err
}

// SendExtension issues an arbitrary peer-specific request declared in the
// extension registry, forwarding params verbatim and returning the raw
// reply for the dispatcher to shape into a tool result.
func (c *Client) SendExtension(ctx context.Context, wireMethod string, params any) (json.RawMessage, error) {
	return c.callRaw(ctx, wireMethod, params)
}
