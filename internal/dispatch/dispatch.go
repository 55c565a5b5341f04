package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"go.lsp.dev/protocol"
	"golang.org/x/sync/errgroup"

	"github.com/wiredcode/lsp-mcp-bridge/internal/extension"
	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
	"github.com/wiredcode/lsp-mcp-bridge/internal/lspclient"
	"github.com/wiredcode/lsp-mcp-bridge/internal/multiplexer"
)

// Dispatcher is the single translation point between the fixed MCP tool
// catalog plus per-peer extensions and the LSP requests that implement
// them. It holds a non-owning reference to the Multiplexer.
type Dispatcher struct {
	root string
	mux  *multiplexer.Multiplexer
}

// New builds a Dispatcher over mux, rooted at root for path normalization.
func New(root string, mux *multiplexer.Multiplexer) *Dispatcher {
	return &Dispatcher{root: root, mux: mux}
}

// StandardToolNames lists the catalog's stable names (spec.md §6), in
// catalog order, independent of which peers have started.
var StandardToolNames = []string{
	"goto_definition", "goto_type_definition", "goto_implementation", "goto_declaration", "find_references",
	"hover", "signature_help", "document_symbols", "workspace_symbols",
	"code_actions", "rename_prepare", "rename",
	"call_hierarchy_incoming", "call_hierarchy_outgoing", "type_hierarchy",
	"open_file", "diagnostics",
}

// ExtensionTools returns the extension descriptors advertised up front,
// independent of which peers have started.
func (d *Dispatcher) ExtensionTools() []extension.Descriptor {
	return d.mux.AllConfiguredExtensions()
}

// Call routes a single tool invocation to its implementation. The returned
// value is marshaled to canonical JSON by the MCP front-end; the error is
// non-nil for every error kind in spec.md §7 except peer crash/shutdown
// timeout, which are invisible to callers by construction.
func (d *Dispatcher) Call(ctx context.Context, tool string, rawArgs map[string]any) (any, error) {
	args := Args(rawArgs)

	switch tool {
	case "goto_definition":
		return d.gotoLocation(ctx, args, (*lspclient.Client).Definition)
	case "goto_type_definition":
		return d.gotoLocation(ctx, args, (*lspclient.Client).TypeDefinition)
	case "goto_implementation":
		return d.gotoLocation(ctx, args, (*lspclient.Client).Implementation)
	case "goto_declaration":
		return d.gotoLocation(ctx, args, (*lspclient.Client).Declaration)
	case "find_references":
		return d.findReferences(ctx, args)
	case "hover":
		return d.hover(ctx, args)
	case "signature_help":
		return d.signatureHelp(ctx, args)
	case "document_symbols":
		return d.documentSymbols(ctx, args)
	case "workspace_symbols":
		return d.workspaceSymbols(ctx, args)
	case "code_actions":
		return d.codeActions(ctx, args)
	case "rename_prepare":
		return d.renamePrepare(ctx, args)
	case "rename":
		return d.rename(ctx, args)
	case "call_hierarchy_incoming":
		return d.callHierarchy(ctx, args, true)
	case "call_hierarchy_outgoing":
		return d.callHierarchy(ctx, args, false)
	case "type_hierarchy":
		return d.typeHierarchy(ctx, args)
	case "open_file":
		return d.openFile(ctx, args)
	case "diagnostics":
		return d.diagnostics(ctx, args)
	default:
		return d.extensionCall(ctx, tool, args)
	}
}

// resolveClient ensures a client for the file named in args, opens the
// document, and returns the client alongside the file's absolute path.
func (d *Dispatcher) resolveClient(ctx context.Context, args Args) (*lspclient.Client, string, error) {
	file, err := args.requireString("file")
	if err != nil {
		return nil, "", err
	}

	abs, err := d.mux.ToAbsolute(file)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", file, err)
	}

	client, err := d.mux.EnsureClientForFile(ctx, abs)
	if err != nil {
		return nil, "", err
	}
	if client == nil {
		return nil, "", NoMatchingPeerError{File: file}
	}

	if err := client.EnsureOpen(ctx, abs); err != nil {
		return nil, "", fmt.Errorf("open %s: %w", file, err)
	}

	return client, abs, nil
}

func (d *Dispatcher) requirePosition(args Args) (line, col int, err error) {
	line, err = args.requireInt("line")
	if err != nil {
		return 0, 0, err
	}
	col, err = args.requireInt("col")
	if err != nil {
		return 0, 0, err
	}
	return line, col, nil
}

func (d *Dispatcher) openFile(ctx context.Context, args Args) (any, error) {
	_, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	return map[string]any{"file": langutil.ToRelative(d.root, abs), "opened": true}, nil
}

func (d *Dispatcher) diagnostics(ctx context.Context, args Args) (any, error) {
	if _, ok := args.optionalString("file"); ok {
		client, abs, err := d.resolveClient(ctx, args)
		if err != nil {
			return nil, err
		}
		diags, err := client.WaitForDiagnostics(ctx, abs)
		if err != nil {
			return nil, err
		}
		return NormalizeDiagnostics(diags), nil
	}

	if d.mux.PeerCount() == 0 {
		return nil, ConfigAbsentError{}
	}

	all := map[string][]diagnosticResult{}
	for _, c := range d.mux.AllClients() {
		for uri, diags := range c.AllCachedDiagnostics() {
			if len(diags) == 0 {
				continue
			}
			path := langutil.ToRelative(d.root, langutil.URIToPath(uri))
			all[path] = NormalizeDiagnostics(diags)
		}
	}
	return all, nil
}

// locationRequest is the shape shared by the four goto_* tools.
type locationRequest func(c *lspclient.Client, ctx context.Context, path string, line, character int) (json.RawMessage, error)

func (d *Dispatcher) gotoLocation(ctx context.Context, args Args, request locationRequest) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	l, c := toWire(line, col)

	raw, err := request(client, ctx, abs, int(l), int(c))
	if err != nil {
		return nil, err
	}
	return NormalizeLocations(d.root, raw)
}

func (d *Dispatcher) findReferences(ctx context.Context, args Args) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	l, c := toWire(line, col)

	locs, err := client.References(ctx, abs, int(l), int(c))
	if err != nil {
		return nil, err
	}
	out := make([]locationResult, 0, len(locs))
	for _, loc := range locs {
		ln, cl := toExternal(loc.Range.Start.Line, loc.Range.Start.Character)
		out = append(out, locationResult{
			File: langutil.ToRelative(d.root, langutil.URIToPath(string(loc.URI))),
			Line: ln,
			Col:  cl,
		})
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0], nil
	default:
		return out, nil
	}
}

func (d *Dispatcher) hover(ctx context.Context, args Args) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	l, c := toWire(line, col)
	raw, err := client.Hover(ctx, abs, int(l), int(c))
	if err != nil {
		return nil, err
	}
	return NormalizeHover(raw)
}

func (d *Dispatcher) signatureHelp(ctx context.Context, args Args) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	l, c := toWire(line, col)
	help, err := client.SignatureHelp(ctx, abs, int(l), int(c))
	if err != nil {
		return nil, err
	}

	sigs := make([]map[string]any, 0, len(help.Signatures))
	for _, s := range help.Signatures {
		docRaw, _ := json.Marshal(s.Documentation)
		doc, _ := flattenMarkupContents(docRaw)
		sigs = append(sigs, map[string]any{
			"label":         s.Label,
			"documentation": doc,
		})
	}
	return map[string]any{
		"signatures":      sigs,
		"activeSignature": int(help.ActiveSignature),
		"activeParameter": int(help.ActiveParameter),
	}, nil
}

func (d *Dispatcher) documentSymbols(ctx context.Context, args Args) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	raw, err := client.DocumentSymbols(ctx, abs)
	if err != nil {
		return nil, err
	}
	return NormalizeDocumentSymbols(d.root, raw)
}

func (d *Dispatcher) workspaceSymbols(ctx context.Context, args Args) (any, error) {
	query, err := args.requireString("query")
	if err != nil {
		return nil, err
	}

	if d.mux.PeerCount() == 0 {
		return nil, ConfigAbsentError{}
	}

	clients := d.mux.AllClients()
	results := make([][]symbolResult, len(clients))

	var g errgroup.Group
	for i, c := range clients {
		i, c := i, c
		g.Go(func() error {
			raw, err := c.WorkspaceSymbols(ctx, query)
			if err != nil {
				return nil // silently drop failed peers per spec.md §4.2
			}
			syms, err := NormalizeWorkspaceSymbols(d.root, raw)
			if err != nil {
				return nil
			}
			results[i] = syms
			return nil
		})
	}
	_ = g.Wait()

	var out []symbolResult
	for _, syms := range results {
		out = append(out, syms...)
	}
	return out, nil
}

func (d *Dispatcher) codeActions(ctx context.Context, args Args) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	endLine := args.optionalInt("endLine", line)
	endCol := args.optionalInt("endCol", col)

	sl, sc := toWire(line, col)
	el, ec := toWire(endLine, endCol)

	raw, err := client.CodeActions(ctx, abs, int(sl), int(sc), int(el), int(ec), nil)
	if err != nil {
		return nil, err
	}
	return NormalizeCodeActions(d.root, raw)
}

func (d *Dispatcher) renamePrepare(ctx context.Context, args Args) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	l, c := toWire(line, col)
	raw, err := client.PrepareRename(ctx, abs, int(l), int(c))
	if err != nil {
		return nil, err
	}
	return NormalizePrepareRename(raw)
}

func (d *Dispatcher) rename(ctx context.Context, args Args) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	newName, err := args.requireString("newName")
	if err != nil {
		return nil, err
	}
	l, c := toWire(line, col)

	edit, err := client.Rename(ctx, abs, int(l), int(c), newName)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(edit)
	if err != nil {
		return nil, fmt.Errorf("marshal workspace edit: %w", err)
	}
	return NormalizeWorkspaceEdit(d.root, raw)
}

func (d *Dispatcher) callHierarchy(ctx context.Context, args Args, incoming bool) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	l, c := toWire(line, col)

	items, err := client.PrepareCallHierarchy(ctx, abs, int(l), int(c))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	if incoming {
		calls, err := client.IncomingCalls(ctx, items[0])
		if err != nil {
			return nil, err
		}
		return NormalizeIncomingCalls(d.root, calls), nil
	}
	calls, err := client.OutgoingCalls(ctx, items[0])
	if err != nil {
		return nil, err
	}
	return NormalizeOutgoingCalls(d.root, calls), nil
}

func (d *Dispatcher) typeHierarchy(ctx context.Context, args Args) (any, error) {
	client, abs, err := d.resolveClient(ctx, args)
	if err != nil {
		return nil, err
	}
	line, col, err := d.requirePosition(args)
	if err != nil {
		return nil, err
	}
	l, c := toWire(line, col)

	items, err := client.PrepareTypeHierarchy(ctx, abs, int(l), int(c))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	item := items[0]

	var supertypes, subtypes []protocol.TypeHierarchyItem
	var g errgroup.Group
	g.Go(func() error {
		s, err := client.Supertypes(ctx, item)
		supertypes = s
		return err
	})
	g.Go(func() error {
		s, err := client.Subtypes(ctx, item)
		subtypes = s
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NormalizeTypeHierarchy(d.root, item, supertypes, subtypes), nil
}

func (d *Dispatcher) extensionCall(ctx context.Context, tool string, args Args) (any, error) {
	client, ok := d.mux.ClientForExtensionTool(tool)
	if !ok {
		return nil, UnknownToolError{Tool: tool}
	}

	var descriptor extension.Descriptor
	found := false
	for _, ext := range client.Extensions() {
		if ext.ToolName == tool {
			descriptor, found = ext, true
			break
		}
	}
	if !found {
		return nil, UnknownToolError{Tool: tool}
	}

	var params any
	switch descriptor.ParamShape {
	case extension.ShapeDocument:
		file, err := args.requireString("file")
		if err != nil {
			return nil, err
		}
		abs, err := d.mux.ToAbsolute(file)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureOpen(ctx, abs); err != nil {
			return nil, err
		}
		params = map[string]any{"textDocument": map[string]any{"uri": langutil.PathToURI(abs)}}
	case extension.ShapeDocumentPosition:
		file, err := args.requireString("file")
		if err != nil {
			return nil, err
		}
		line, col, err := d.requirePosition(args)
		if err != nil {
			return nil, err
		}
		abs, err := d.mux.ToAbsolute(file)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureOpen(ctx, abs); err != nil {
			return nil, err
		}
		l, c := toWire(line, col)
		params = map[string]any{
			"textDocument": map[string]any{"uri": langutil.PathToURI(abs)},
			"position":     map[string]any{"line": l, "character": c},
		}
	default:
		params = map[string]any(args)
	}

	raw, err := client.SendExtension(ctx, descriptor.WireMethod, params)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode extension reply: %w", err)
	}
	return out, nil
}
