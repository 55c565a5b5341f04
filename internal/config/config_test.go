package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lsp-mcp-bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Peers)
}

func TestLoadPeers(t *testing.T) {
	path := writeConfig(t, `
peers:
  typescript:
    command: ["typescript-language-server", "--stdio"]
    filePatterns: ["**/*.ts", "**/*.tsx"]
  rust:
    command: ["rust-analyzer"]
    filePatterns: ["**/*.rs"]
    rootUri: "file:///workspace"
    env:
      RUST_LOG: "info"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Peers, 2)

	byName := map[string]PeerConfig{}
	for _, p := range cfg.Peers {
		byName[p.Name] = p
	}

	rust := byName["rust"]
	assert.Equal(t, []string{"rust-analyzer"}, rust.Command)
	assert.Equal(t, "file:///workspace", rust.RootURI)
	assert.Equal(t, "info", rust.Env["RUST_LOG"])
}

func TestLoadRejectsPeerWithoutCommand(t *testing.T) {
	path := writeConfig(t, `
peers:
  broken:
    filePatterns: ["**/*.go"]
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsPeerWithoutPatterns(t *testing.T) {
	path := writeConfig(t, `
peers:
  broken:
    command: ["gopls"]
`)
	_, err := Load(path)
	require.Error(t, err)
}
