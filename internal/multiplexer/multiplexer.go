// Package multiplexer matches files to configured LSP peers by glob
// pattern, enforces lazy startup, fans out workspace-wide queries across
// every running peer, and routes protocol-extension tool calls.
package multiplexer

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wiredcode/lsp-mcp-bridge/internal/config"
	"github.com/wiredcode/lsp-mcp-bridge/internal/extension"
	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
	"github.com/wiredcode/lsp-mcp-bridge/internal/logging"
	"github.com/wiredcode/lsp-mcp-bridge/internal/lspclient"
)

// entry pairs a client with its glob patterns, kept as the configured
// strings. No compiled form is stored: doublestar parses each pattern again
// on every match, and a malformed pattern is not rejected at construction;
// it simply never matches.
type entry struct {
	client   *lspclient.Client
	patterns []string
}

func (e *entry) matches(relPath string) bool {
	for _, pattern := range e.patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// Multiplexer owns every configured peer's Client and selects among them by
// file pattern. It is the single owner of the Client set; Clients own their
// own subprocess, connection, and per-document tables.
type Multiplexer struct {
	root string

	mu      sync.RWMutex
	entries []*entry

	logger *zap.SugaredLogger
}

// New builds a Multiplexer with one Idle Client per configured peer. No
// subprocess is spawned here; clients start lazily on first matching file.
func New(root string, peers []config.PeerConfig) *Multiplexer {
	m := &Multiplexer{
		root:   root,
		logger: logging.Component("multiplexer"),
	}
	for _, p := range peers {
		m.entries = append(m.entries, &entry{
			client: lspclient.New(lspclient.Config{
				Name:                  p.Name,
				Command:               p.Command,
				RootPath:              root,
				RootURI:               p.RootURI,
				InitializationOptions: p.InitializationOptions,
				Env:                   p.Env,
			}),
			patterns: p.FilePatterns,
		})
	}
	return m
}

// PeerCount returns the number of peers configured at construction,
// regardless of whether any have started. Used to distinguish "no peers
// configured at all" (spec.md §7 error kind 1) from "no peer matches this
// file" (error kind 2).
func (m *Multiplexer) PeerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// ToRelative converts an absolute or relative path to one relative to the
// workspace root, suitable for glob matching.
func (m *Multiplexer) ToRelative(path string) string {
	return langutil.ToRelative(m.root, path)
}

// ToAbsolute converts a path (relative to the workspace root, or already
// absolute) to an absolute path.
func (m *Multiplexer) ToAbsolute(path string) (string, error) {
	return langutil.ToAbsolute(m.root, path)
}

// EnsureClientForFile returns a Ready client whose glob matches path,
// starting the first configured-but-not-started match if none is already
// running. It never restarts a Dead client and never starts more than one
// peer per call.
func (m *Multiplexer) EnsureClientForFile(ctx context.Context, path string) (*lspclient.Client, error) {
	rel := m.relOrAbs(path)

	m.mu.RLock()
	for _, e := range m.entries {
		if e.client.State() == lspclient.StateReady && e.matches(rel) {
			m.mu.RUnlock()
			return e.client, nil
		}
	}
	m.mu.RUnlock()

	m.mu.RLock()
	var candidate *entry
	for _, e := range m.entries {
		if e.client.State() == lspclient.StateIdle && e.matches(rel) {
			candidate = e
			break
		}
	}
	m.mu.RUnlock()

	if candidate == nil {
		return nil, nil
	}

	if err := candidate.client.Start(ctx); err != nil {
		m.logger.Warnw("peer failed to start", "peer", candidate.client.Name(), "error", err)
		return nil, nil
	}
	m.logger.Infow("peer started", "peer", candidate.client.Name())
	return candidate.client, nil
}

// ClientForFile returns a Ready client matching path, without starting one.
func (m *Multiplexer) ClientForFile(path string) (*lspclient.Client, bool) {
	rel := m.relOrAbs(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.client.State() == lspclient.StateReady && e.matches(rel) {
			return e.client, true
		}
	}
	return nil, false
}

// ClientsForFile returns every Ready client matching path.
func (m *Multiplexer) ClientsForFile(path string) []*lspclient.Client {
	rel := m.relOrAbs(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*lspclient.Client
	for _, e := range m.entries {
		if e.client.State() == lspclient.StateReady && e.matches(rel) {
			out = append(out, e.client)
		}
	}
	return out
}

// AllClients returns every Ready client, in configuration order.
func (m *Multiplexer) AllClients() []*lspclient.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*lspclient.Client
	for _, e := range m.entries {
		if e.client.State() == lspclient.StateReady {
			out = append(out, e.client)
		}
	}
	return out
}

// AllConfiguredExtensions returns the extensions declared for every
// configured client, whether running or not, so the MCP tool catalog can
// advertise them up front.
func (m *Multiplexer) AllConfiguredExtensions() []extension.Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []extension.Descriptor
	for _, e := range m.entries {
		out = append(out, e.client.Extensions()...)
	}
	return out
}

// ClientForExtensionTool returns a Ready client whose extensions include
// toolName. Returns false if no running peer currently serves it.
func (m *Multiplexer) ClientForExtensionTool(toolName string) (*lspclient.Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.client.State() != lspclient.StateReady {
			continue
		}
		for _, ext := range e.client.Extensions() {
			if ext.ToolName == toolName {
				return e.client, true
			}
		}
	}
	return nil, false
}

// ShutdownAll shuts down every client concurrently and waits for all to
// finish; per-peer failures are logged, never propagated.
func (m *Multiplexer) ShutdownAll(ctx context.Context) {
	m.mu.RLock()
	clients := make([]*lspclient.Client, 0, len(m.entries))
	for _, e := range m.entries {
		clients = append(clients, e.client)
	}
	m.mu.RUnlock()

	var g errgroup.Group
	for _, c := range clients {
		c := c
		g.Go(func() error {
			c.Shutdown(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

func (m *Multiplexer) relOrAbs(path string) string {
	if filepath.IsAbs(path) {
		return m.ToRelative(path)
	}
	return path
}
