package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolKindNameKnownValue(t *testing.T) {
	assert.Equal(t, "Function", symbolKindName(12))
	assert.Equal(t, "Struct", symbolKindName(23))
}

func TestSymbolKindNameUnknownFallsBackToNumbered(t *testing.T) {
	assert.Equal(t, "Kind(99)", symbolKindName(99))
}

func TestNormalizeLocationsNullReturnsNil(t *testing.T) {
	out, err := NormalizeLocations("/root", json.RawMessage("null"))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestNormalizeLocationsSingleLocation(t *testing.T) {
	raw := json.RawMessage(`{"uri":"file:///root/main.go","range":{"start":{"line":9,"character":4},"end":{"line":9,"character":10}}}`)
	out, err := NormalizeLocations("/root", raw)
	require.NoError(t, err)
	loc, ok := out.(locationResult)
	require.True(t, ok)
	assert.Equal(t, "main.go", loc.File)
	assert.Equal(t, 10, loc.Line)
	assert.Equal(t, 5, loc.Col)
}

func TestNormalizeLocationsArrayCollapsesSingleElement(t *testing.T) {
	raw := json.RawMessage(`[{"uri":"file:///root/main.go","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}}}]`)
	out, err := NormalizeLocations("/root", raw)
	require.NoError(t, err)
	_, ok := out.(locationResult)
	assert.True(t, ok, "single-element array should collapse to a scalar result")
}

func TestNormalizeLocationsArrayWithMultipleElements(t *testing.T) {
	raw := json.RawMessage(`[
		{"uri":"file:///root/a.go","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}}},
		{"uri":"file:///root/b.go","range":{"start":{"line":1,"character":0},"end":{"line":1,"character":1}}}
	]`)
	out, err := NormalizeLocations("/root", raw)
	require.NoError(t, err)
	locs, ok := out.([]locationResult)
	require.True(t, ok)
	assert.Len(t, locs, 2)
	assert.Equal(t, "a.go", locs[0].File)
	assert.Equal(t, "b.go", locs[1].File)
}

func TestNormalizeLocationsHandlesLocationLink(t *testing.T) {
	raw := json.RawMessage(`{"targetUri":"file:///root/impl.go","targetRange":{"start":{"line":0,"character":0},"end":{"line":2,"character":1}},"targetSelectionRange":{"start":{"line":1,"character":2},"end":{"line":1,"character":8}}}`)
	out, err := NormalizeLocations("/root", raw)
	require.NoError(t, err)
	loc, ok := out.(locationResult)
	require.True(t, ok)
	assert.Equal(t, "impl.go", loc.File)
	assert.Equal(t, 2, loc.Line)
	assert.Equal(t, 3, loc.Col)
}

func TestNormalizeHoverNullReturnsNil(t *testing.T) {
	out, err := NormalizeHover(json.RawMessage("null"))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestNormalizeHoverPlainStringContents(t *testing.T) {
	raw := json.RawMessage(`{"contents":"hello world"}`)
	out, err := NormalizeHover(raw)
	require.NoError(t, err)
	result, ok := out.(hoverResult)
	require.True(t, ok)
	assert.Equal(t, "hello world", result.Contents)
	assert.Nil(t, result.Range)
}

func TestNormalizeHoverMarkupContent(t *testing.T) {
	raw := json.RawMessage(`{"contents":{"kind":"markdown","value":"**bold**"}}`)
	out, err := NormalizeHover(raw)
	require.NoError(t, err)
	result := out.(hoverResult)
	assert.Equal(t, "**bold**", result.Contents)
}

func TestNormalizeHoverMarkedStringWithLanguage(t *testing.T) {
	raw := json.RawMessage(`{"contents":{"language":"go","value":"func main() {}"}}`)
	out, err := NormalizeHover(raw)
	require.NoError(t, err)
	result := out.(hoverResult)
	assert.Equal(t, "```go\nfunc main() {}\n```", result.Contents)
}

func TestNormalizeHoverMarkedStringArrayJoinsWithBlankLine(t *testing.T) {
	raw := json.RawMessage(`{"contents":["first","second"]}`)
	out, err := NormalizeHover(raw)
	require.NoError(t, err)
	result := out.(hoverResult)
	assert.Equal(t, "first\n\nsecond", result.Contents)
}

func TestNormalizeHoverWithRange(t *testing.T) {
	raw := json.RawMessage(`{"contents":"x","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":3}}}`)
	out, err := NormalizeHover(raw)
	require.NoError(t, err)
	result := out.(hoverResult)
	require.NotNil(t, result.Range)
	assert.Equal(t, 1, result.Range.Start.Line)
	assert.Equal(t, 4, result.Range.End.Col)
}

func TestNormalizeDocumentSymbolsHierarchical(t *testing.T) {
	raw := json.RawMessage(`[{
		"name":"Foo","kind":5,"detail":"struct Foo",
		"range":{"start":{"line":0,"character":0},"end":{"line":10,"character":1}},
		"selectionRange":{"start":{"line":0,"character":5},"end":{"line":0,"character":8}},
		"children":[
			{"name":"Bar","kind":6,
			 "range":{"start":{"line":1,"character":0},"end":{"line":2,"character":1}},
			 "selectionRange":{"start":{"line":1,"character":1},"end":{"line":1,"character":4}}}
		]
	}]`)
	out, err := NormalizeDocumentSymbols("/root", raw)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Foo", out[0].Name)
	assert.Equal(t, "Class", out[0].Kind)
	require.Len(t, out[0].Children, 1)
	assert.Equal(t, "Bar", out[0].Children[0].Name)
	assert.Equal(t, "Method", out[0].Children[0].Kind)
}

func TestNormalizeDocumentSymbolsFlatSymbolInformation(t *testing.T) {
	raw := json.RawMessage(`[{
		"name":"Foo","kind":12,
		"location":{"uri":"file:///root/main.go","range":{"start":{"line":4,"character":0},"end":{"line":4,"character":3}}}
	}]`)
	out, err := NormalizeDocumentSymbols("/root", raw)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "main.go", out[0].File)
	assert.Equal(t, 5, out[0].Line)
	assert.Empty(t, out[0].Children)
}

func TestNormalizeWorkspaceSymbolsHandlesMissingLocation(t *testing.T) {
	raw := json.RawMessage(`[{"name":"Foo","kind":12}]`)
	out, err := NormalizeWorkspaceSymbols("/root", raw)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Foo", out[0].Name)
	assert.Empty(t, out[0].File)
}

func TestNormalizeWorkspaceSymbolsWithLocation(t *testing.T) {
	raw := json.RawMessage(`[{"name":"Foo","kind":12,"location":{"uri":"file:///root/main.go","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}}}}]`)
	out, err := NormalizeWorkspaceSymbols("/root", raw)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "main.go", out[0].File)
	assert.Equal(t, 1, out[0].Line)
}
