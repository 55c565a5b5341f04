package lspclient

import (
	"context"
	"fmt"
	"time"

	"go.lsp.dev/protocol"

	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
)

// cachedDiagnostics is the most recent publishDiagnostics payload received
// for a URI, stamped with the time it arrived.
type cachedDiagnostics struct {
	diagnostics []protocol.Diagnostic
	at          time.Time
}

// handlePublishDiagnostics is invoked from the incoming-message handler on
// textDocument/publishDiagnostics. It overwrites the cache for the URI and
// wakes every outstanding waiter, whether or not the diagnostics changed —
// the peer publishing is itself the freshness signal.
func (c *Client) handlePublishDiagnostics(params *protocol.PublishDiagnosticsParams) {
	uri := string(params.URI)

	c.diagMu.Lock()
	c.cache[uri] = cachedDiagnostics{diagnostics: params.Diagnostics, at: time.Now()}
	waiting := c.waiters[uri]
	delete(c.waiters, uri)
	c.diagMu.Unlock()

	for _, ch := range waiting {
		ch <- params.Diagnostics
	}
}

// WaitForDiagnostics returns diagnostics for path. If the cached entry is
// younger than the freshness window it is returned immediately; otherwise
// the call blocks for a fresh publish, up to diagnosticsWaitTimeout, and
// falls back to the stale cache (or an empty slice) on timeout.
func (c *Client) WaitForDiagnostics(ctx context.Context, path string) ([]protocol.Diagnostic, error) {
	uri := langutil.PathToURI(path)

	c.diagMu.Lock()
	if entry, ok := c.cache[uri]; ok && time.Since(entry.at) < diagnosticsFreshWindow {
		c.diagMu.Unlock()
		return entry.diagnostics, nil
	}

	ch := make(chan []protocol.Diagnostic, 1)
	c.waiters[uri] = append(c.waiters[uri], ch)
	stale, hadStale := c.cache[uri]
	c.diagMu.Unlock()

	timeout := time.NewTimer(diagnosticsWaitTimeout)
	defer timeout.Stop()

	select {
	case diags := <-ch:
		return diags, nil
	case <-timeout.C:
		c.deregisterWaiter(uri, ch)
		if hadStale {
			return stale.diagnostics, nil
		}
		return nil, nil
	case <-ctx.Done():
		c.deregisterWaiter(uri, ch)
		return nil, fmt.Errorf("wait for diagnostics %s: %w", path, ctx.Err())
	}
}

// deregisterWaiter removes ch from the URI's waiter list. Used when a wait
// gives up before handlePublishDiagnostics ever fires for that URI, so a
// timed-out or canceled call doesn't leave a channel nobody will read from.
func (c *Client) deregisterWaiter(uri string, ch chan []protocol.Diagnostic) {
	c.diagMu.Lock()
	defer c.diagMu.Unlock()

	waiters := c.waiters[uri]
	for i, w := range waiters {
		if w == ch {
			c.waiters[uri] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(c.waiters[uri]) == 0 {
		delete(c.waiters, uri)
	}
}

// AllCachedDiagnostics returns the last known diagnostics for every URI this
// client has received a publish for, without waiting.
func (c *Client) AllCachedDiagnostics() map[string][]protocol.Diagnostic {
	c.diagMu.Lock()
	defer c.diagMu.Unlock()

	out := make(map[string][]protocol.Diagnostic, len(c.cache))
	for uri, entry := range c.cache {
		out[uri] = entry.diagnostics
	}
	return out
}
