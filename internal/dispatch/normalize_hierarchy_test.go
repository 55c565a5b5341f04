package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
)

func makeTestCallHierarchyItem(name string, path string, line, char uint32) protocol.CallHierarchyItem {
	return protocol.CallHierarchyItem{
		Name: name,
		Kind: protocol.SymbolKindFunction,
		URI:  protocol.DocumentURI("file://" + path),
		SelectionRange: protocol.Range{
			Start: protocol.Position{Line: line, Character: char},
			End:   protocol.Position{Line: line, Character: char + uint32(len(name))},
		},
	}
}

func TestNormalizeHierarchyItemConvertsCoordinates(t *testing.T) {
	item := makeTestCallHierarchyItem("DoThing", "/root/main.go", 9, 1)
	out := normalizeHierarchyItem("/root", item)
	assert.Equal(t, "DoThing", out.Name)
	assert.Equal(t, "Function", out.Kind)
	assert.Equal(t, "main.go", out.File)
	assert.Equal(t, 10, out.Line)
	assert.Equal(t, 2, out.Col)
}

func TestNormalizeIncomingCallsBuildsFromRangesList(t *testing.T) {
	item := makeTestCallHierarchyItem("Caller", "/root/a.go", 0, 0)
	calls := []protocol.CallHierarchyIncomingCall{
		{
			From: item,
			FromRanges: []protocol.Range{
				{Start: protocol.Position{Line: 1, Character: 2}, End: protocol.Position{Line: 1, Character: 8}},
			},
		},
	}
	out := NormalizeIncomingCalls("/root", calls)
	assert.Len(t, out, 1)
	assert.Equal(t, "Caller", out[0].From.Name)
	assert.Len(t, out[0].FromRanges, 1)
	assert.Equal(t, 2, out[0].FromRanges[0].Line)
}

func TestNormalizeOutgoingCallsBuildsToField(t *testing.T) {
	item := makeTestCallHierarchyItem("Callee", "/root/b.go", 3, 0)
	calls := []protocol.CallHierarchyOutgoingCall{
		{To: item, FromRanges: nil},
	}
	out := NormalizeOutgoingCalls("/root", calls)
	assert.Len(t, out, 1)
	assert.Equal(t, "Callee", out[0].To.Name)
	assert.Empty(t, out[0].FromRanges)
}

func TestNormalizeTypeHierarchyAssemblesAllThreeLists(t *testing.T) {
	item := protocol.TypeHierarchyItem{
		Name: "Widget",
		Kind: protocol.SymbolKindClass,
		URI:  protocol.DocumentURI("file:///root/widget.go"),
		SelectionRange: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 5},
			End:   protocol.Position{Line: 0, Character: 11},
		},
	}
	super := []protocol.TypeHierarchyItem{item}
	sub := []protocol.TypeHierarchyItem{item, item}

	out := NormalizeTypeHierarchy("/root", item, super, sub)
	assert.Equal(t, "Widget", out.Item.Name)
	assert.Len(t, out.Supertypes, 1)
	assert.Len(t, out.Subtypes, 2)
}
