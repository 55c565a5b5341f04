package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiredcode/lsp-mcp-bridge/internal/config"
	"github.com/wiredcode/lsp-mcp-bridge/internal/multiplexer"
)

func newTestDispatcher(t *testing.T, peers []config.PeerConfig) *Dispatcher {
	t.Helper()
	root := t.TempDir()
	mux := multiplexer.New(root, peers)
	return New(root, mux)
}

func TestCallUnknownToolReturnsUnknownToolError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Call(context.Background(), "nonexistent_tool", map[string]any{"file": "a.go"})
	require.Error(t, err)
	assert.Equal(t, UnknownToolError{Tool: "nonexistent_tool"}, err)
}

func TestCallHoverMissingFileReturnsValidationError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Call(context.Background(), "hover", map[string]any{"line": float64(1), "col": float64(1)})
	require.Error(t, err)
	assert.Equal(t, ValidationError{Param: "file"}, err)
}

func TestCallHoverNoConfiguredPeerReturnsNoMatchingPeerError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Call(context.Background(), "hover", map[string]any{"file": "main.go", "line": float64(1), "col": float64(1)})
	require.Error(t, err)
	assert.Equal(t, NoMatchingPeerError{File: "main.go"}, err)
}

func TestCallGotoDefinitionUnstartablePeerReturnsNoMatchingPeerError(t *testing.T) {
	// The configured command doesn't exist on the test host, so the peer
	// fails to start and resolveClient reports it the same as no match.
	peers := []config.PeerConfig{{Name: "go", Command: []string{"nonexistent-lsp-binary-xyz"}, FilePatterns: []string{"**/*.go"}}}
	d := newTestDispatcher(t, peers)
	_, err := d.Call(context.Background(), "goto_definition", map[string]any{"file": "main.go", "line": float64(1), "col": float64(1)})
	require.Error(t, err)
	assert.Equal(t, NoMatchingPeerError{File: "main.go"}, err)
}

func TestCallWorkspaceSymbolsRequiresQuery(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Call(context.Background(), "workspace_symbols", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, ValidationError{Param: "query"}, err)
}

func TestCallWorkspaceSymbolsWithNoPeersReturnsConfigAbsentError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Call(context.Background(), "workspace_symbols", map[string]any{"query": "Foo"})
	require.Error(t, err)
	assert.Equal(t, ConfigAbsentError{}, err)
}

func TestCallDiagnosticsWithoutFileAndNoPeersReturnsConfigAbsentError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Call(context.Background(), "diagnostics", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, ConfigAbsentError{}, err)
}

func TestCallRenameNoConfiguredPeerReturnsNoMatchingPeerError(t *testing.T) {
	d := newTestDispatcher(t, nil)
	_, err := d.Call(context.Background(), "rename", map[string]any{"file": "main.go", "line": float64(1), "col": float64(1)})
	require.Error(t, err)
	assert.Equal(t, NoMatchingPeerError{File: "main.go"}, err)
}

func TestExtensionToolsEmptyWhenNoPeersConfigured(t *testing.T) {
	d := newTestDispatcher(t, nil)
	assert.Empty(t, d.ExtensionTools())
}

func TestExtensionToolsIncludesGoplsExtensions(t *testing.T) {
	peers := []config.PeerConfig{{Name: "go", Command: []string{"gopls"}, FilePatterns: []string{"**/*.go"}}}
	d := newTestDispatcher(t, peers)
	tools := d.ExtensionTools()
	require.NotEmpty(t, tools)
	assert.Equal(t, "go_package_symbols", tools[0].ToolName)
}
