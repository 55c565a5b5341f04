package dispatch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
)

// symbolKindNames maps the 26 canonical LSP SymbolKind values (1-indexed)
// to the names spec'd for document_symbols/workspace_symbols output.
var symbolKindNames = map[int]string{
	1: "File", 2: "Module", 3: "Namespace", 4: "Package", 5: "Class",
	6: "Method", 7: "Property", 8: "Field", 9: "Constructor", 10: "Enum",
	11: "Interface", 12: "Function", 13: "Variable", 14: "Constant",
	15: "String", 16: "Number", 17: "Boolean", 18: "Array", 19: "Object",
	20: "Key", 21: "Null", 22: "EnumMember", 23: "Struct", 24: "Event",
	25: "Operator", 26: "TypeParameter",
}

func symbolKindName(kind int) string {
	if name, ok := symbolKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", kind)
}

// locationResult is the {file, line, col} shape used for every navigation
// tool and every hierarchy/symbol entry that carries a single point.
type locationResult struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

// rawPosition/fullRawRange mirror the wire JSON shape of an LSP Position and
// Range, used by the structural-presence normalizers in this file so they
// don't need the full protocol.Range type for every variant they inspect.
type rawPosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type fullRawRange struct {
	Start rawPosition `json:"start"`
	End   rawPosition `json:"end"`
}

// --- goto_definition / type_definition / implementation / declaration / references ---

// NormalizeLocations turns a raw Location | Location[] | LocationLink[] |
// null reply into: nil, a single locationResult, or []locationResult,
// per spec.md §4.3's dispatch table.
func NormalizeLocations(root string, raw json.RawMessage) (any, error) {
	if isJSONNull(raw) {
		return nil, nil
	}

	if isJSONArray(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode location array: %w", err)
		}
		results := make([]locationResult, 0, len(items))
		for _, item := range items {
			loc, err := normalizeOneLocation(root, item)
			if err != nil {
				return nil, err
			}
			results = append(results, loc)
		}
		switch len(results) {
		case 0:
			return nil, nil
		case 1:
			return results[0], nil
		default:
			return results, nil
		}
	}

	loc, err := normalizeOneLocation(root, raw)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func normalizeOneLocation(root string, raw json.RawMessage) (locationResult, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return locationResult{}, fmt.Errorf("decode location: %w", err)
	}

	if targetURIRaw, ok := generic["targetUri"]; ok {
		var uri string
		if err := json.Unmarshal(targetURIRaw, &uri); err != nil {
			return locationResult{}, fmt.Errorf("decode targetUri: %w", err)
		}
		var rng fullRawRange
		if sel, ok := generic["targetSelectionRange"]; ok {
			_ = json.Unmarshal(sel, &rng)
		}
		line, col := toExternal(uint32(rng.Start.Line), uint32(rng.Start.Character))
		return locationResult{File: langutil.ToRelative(root, langutil.URIToPath(uri)), Line: line, Col: col}, nil
	}

	var loc struct {
		URI   string       `json:"uri"`
		Range fullRawRange `json:"range"`
	}
	if err := json.Unmarshal(raw, &loc); err != nil {
		return locationResult{}, fmt.Errorf("decode location: %w", err)
	}
	line, col := toExternal(uint32(loc.Range.Start.Line), uint32(loc.Range.Start.Character))
	return locationResult{File: langutil.ToRelative(root, langutil.URIToPath(loc.URI)), Line: line, Col: col}, nil
}

// --- hover ---

type hoverResult struct {
	Contents string         `json:"contents"`
	Range    *externalRange `json:"range,omitempty"`
}

// NormalizeHover flattens hover contents (string | MarkupContent |
// MarkedString | MarkedString[]) into a single string.
func NormalizeHover(raw json.RawMessage) (any, error) {
	if isJSONNull(raw) {
		return nil, nil
	}

	var wire struct {
		Contents json.RawMessage `json:"contents"`
		Range    *fullRawRange   `json:"range"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode hover: %w", err)
	}

	text, err := flattenMarkupContents(wire.Contents)
	if err != nil {
		return nil, err
	}

	result := hoverResult{Contents: text}
	if wire.Range != nil {
		r := externalRange{
			Start: externalPosition{},
		}
		r.Start.Line, r.Start.Col = toExternal(uint32(wire.Range.Start.Line), uint32(wire.Range.Start.Character))
		r.End.Line, r.End.Col = toExternal(uint32(wire.Range.End.Line), uint32(wire.Range.End.Character))
		result.Range = &r
	}
	return result, nil
}

func flattenMarkupContents(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || isJSONNull(raw) {
		return "", nil
	}

	if isJSONArray(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return "", err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			part, err := flattenOneMarkup(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, "\n\n"), nil
	}

	return flattenOneMarkup(raw)
}

func flattenOneMarkup(raw json.RawMessage) (string, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}

	var generic struct {
		Kind     string `json:"kind"`
		Value    string `json:"value"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("decode markup content: %w", err)
	}
	if generic.Language != "" {
		return "```" + generic.Language + "\n" + generic.Value + "\n```", nil
	}
	return generic.Value, nil
}

// --- document symbols ---

type symbolResult struct {
	Name           string         `json:"name"`
	Kind           string         `json:"kind"`
	File           string         `json:"file,omitempty"`
	Line           int            `json:"line,omitempty"`
	Col            int            `json:"col,omitempty"`
	Detail         string         `json:"detail,omitempty"`
	Range          *externalRange `json:"range,omitempty"`
	SelectionRange *externalRange `json:"selectionRange,omitempty"`
	Children       []symbolResult `json:"children,omitempty"`
}

// NormalizeDocumentSymbols handles both the hierarchical DocumentSymbol form
// and the flat SymbolInformation form, distinguished by the presence of a
// "location" field (only SymbolInformation carries one).
func NormalizeDocumentSymbols(root string, raw json.RawMessage) ([]symbolResult, error) {
	if isJSONNull(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode document symbols: %w", err)
	}

	out := make([]symbolResult, 0, len(items))
	for _, item := range items {
		sym, err := normalizeSymbol(root, item)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, nil
}

func normalizeSymbol(root string, raw json.RawMessage) (symbolResult, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return symbolResult{}, fmt.Errorf("decode symbol: %w", err)
	}

	var kind int
	_ = json.Unmarshal(generic["kind"], &kind)
	var name string
	_ = json.Unmarshal(generic["name"], &name)

	if locRaw, ok := generic["location"]; ok {
		var loc struct {
			URI   string       `json:"uri"`
			Range fullRawRange `json:"range"`
		}
		if err := json.Unmarshal(locRaw, &loc); err != nil {
			return symbolResult{}, fmt.Errorf("decode symbol location: %w", err)
		}
		line, col := toExternal(uint32(loc.Range.Start.Line), uint32(loc.Range.Start.Character))
		return symbolResult{
			Name: name,
			Kind: symbolKindName(kind),
			File: langutil.ToRelative(root, langutil.URIToPath(loc.URI)),
			Line: line,
			Col:  col,
		}, nil
	}

	var doc struct {
		Detail         string            `json:"detail"`
		Range          fullRawRange      `json:"range"`
		SelectionRange fullRawRange      `json:"selectionRange"`
		Children       []json.RawMessage `json:"children"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return symbolResult{}, fmt.Errorf("decode document symbol: %w", err)
	}

	rng := normalizeFullRange(doc.Range)
	sel := normalizeFullRange(doc.SelectionRange)

	result := symbolResult{
		Name:           name,
		Kind:           symbolKindName(kind),
		Detail:         doc.Detail,
		Range:          &rng,
		SelectionRange: &sel,
	}

	if len(doc.Children) > 0 {
		children := make([]symbolResult, 0, len(doc.Children))
		for _, child := range doc.Children {
			c, err := normalizeSymbol(root, child)
			if err != nil {
				return symbolResult{}, err
			}
			children = append(children, c)
		}
		result.Children = children
	}

	return result, nil
}

func normalizeFullRange(r fullRawRange) externalRange {
	var out externalRange
	out.Start.Line, out.Start.Col = toExternal(uint32(r.Start.Line), uint32(r.Start.Character))
	out.End.Line, out.End.Col = toExternal(uint32(r.End.Line), uint32(r.End.Character))
	return out
}

// NormalizeWorkspaceSymbols normalizes one peer's workspace/symbol reply,
// accepting both WorkspaceSymbol (possibly locationless) and
// SymbolInformation entries.
func NormalizeWorkspaceSymbols(root string, raw json.RawMessage) ([]symbolResult, error) {
	if isJSONNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode workspace symbols: %w", err)
	}
	out := make([]symbolResult, 0, len(items))
	for _, item := range items {
		var generic map[string]json.RawMessage
		if err := json.Unmarshal(item, &generic); err != nil {
			return nil, fmt.Errorf("decode workspace symbol: %w", err)
		}
		var kind int
		_ = json.Unmarshal(generic["kind"], &kind)
		var name string
		_ = json.Unmarshal(generic["name"], &name)

		sym := symbolResult{Name: name, Kind: symbolKindName(kind)}

		if locRaw, ok := generic["location"]; ok {
			var loc struct {
				URI   string        `json:"uri"`
				Range *fullRawRange `json:"range"`
			}
			if err := json.Unmarshal(locRaw, &loc); err == nil && loc.URI != "" {
				sym.File = langutil.ToRelative(root, langutil.URIToPath(loc.URI))
				if loc.Range != nil {
					line, col := toExternal(uint32(loc.Range.Start.Line), uint32(loc.Range.Start.Character))
					sym.Line, sym.Col = line, col
				}
			}
		}
		out = append(out, sym)
	}
	return out, nil
}

// --- JSON shape probes ---

func isJSONNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}
