package dispatch

import (
	"go.lsp.dev/protocol"

	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
)

type hierarchyItemResult struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

func normalizeHierarchyItem(root string, item protocol.CallHierarchyItem) hierarchyItemResult {
	line, col := toExternal(item.SelectionRange.Start.Line, item.SelectionRange.Start.Character)
	return hierarchyItemResult{
		Name: item.Name,
		Kind: symbolKindName(int(item.Kind)),
		File: langutil.ToRelative(root, langutil.URIToPath(string(item.URI))),
		Line: line,
		Col:  col,
	}
}

func normalizeTypeHierarchyItem(root string, item protocol.TypeHierarchyItem) hierarchyItemResult {
	line, col := toExternal(item.SelectionRange.Start.Line, item.SelectionRange.Start.Character)
	return hierarchyItemResult{
		Name: item.Name,
		Kind: symbolKindName(int(item.Kind)),
		File: langutil.ToRelative(root, langutil.URIToPath(string(item.URI))),
		Line: line,
		Col:  col,
	}
}

type rangePoint struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

func normalizeRangePoints(ranges []protocol.Range) []rangePoint {
	out := make([]rangePoint, 0, len(ranges))
	for _, r := range ranges {
		line, col := toExternal(r.Start.Line, r.Start.Character)
		out = append(out, rangePoint{Line: line, Col: col})
	}
	return out
}

type incomingCallResult struct {
	From       hierarchyItemResult `json:"from"`
	FromRanges []rangePoint        `json:"fromRanges"`
}

// NormalizeIncomingCalls builds the {from, fromRanges} shape for every
// caller of a call hierarchy item.
func NormalizeIncomingCalls(root string, calls []protocol.CallHierarchyIncomingCall) []incomingCallResult {
	out := make([]incomingCallResult, 0, len(calls))
	for _, call := range calls {
		out = append(out, incomingCallResult{
			From:       normalizeHierarchyItem(root, call.From),
			FromRanges: normalizeRangePoints(call.FromRanges),
		})
	}
	return out
}

type outgoingCallResult struct {
	To         hierarchyItemResult `json:"to"`
	FromRanges []rangePoint        `json:"fromRanges"`
}

// NormalizeOutgoingCalls builds the {to, fromRanges} shape for every callee
// of a call hierarchy item.
func NormalizeOutgoingCalls(root string, calls []protocol.CallHierarchyOutgoingCall) []outgoingCallResult {
	out := make([]outgoingCallResult, 0, len(calls))
	for _, call := range calls {
		out = append(out, outgoingCallResult{
			To:         normalizeHierarchyItem(root, call.To),
			FromRanges: normalizeRangePoints(call.FromRanges),
		})
	}
	return out
}

type typeHierarchyResult struct {
	Item       hierarchyItemResult   `json:"item"`
	Supertypes []hierarchyItemResult `json:"supertypes"`
	Subtypes   []hierarchyItemResult `json:"subtypes"`
}

// NormalizeTypeHierarchy builds the {item, supertypes[], subtypes[]} shape.
func NormalizeTypeHierarchy(root string, item protocol.TypeHierarchyItem, supertypes, subtypes []protocol.TypeHierarchyItem) typeHierarchyResult {
	result := typeHierarchyResult{
		Item:       normalizeTypeHierarchyItem(root, item),
		Supertypes: make([]hierarchyItemResult, 0, len(supertypes)),
		Subtypes:   make([]hierarchyItemResult, 0, len(subtypes)),
	}
	for _, t := range supertypes {
		result.Supertypes = append(result.Supertypes, normalizeTypeHierarchyItem(root, t))
	}
	for _, t := range subtypes {
		result.Subtypes = append(result.Subtypes, normalizeTypeHierarchyItem(root, t))
	}
	return result
}
