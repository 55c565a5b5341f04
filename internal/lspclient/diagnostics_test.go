package lspclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return New(Config{Name: "test-peer", Command: []string{"fake-lsp"}, RootPath: "/workspace"})
}

func TestWaitForDiagnosticsFreshCacheReturnsImmediately(t *testing.T) {
	c := newTestClient(t)
	uri := langutil.PathToURI("/workspace/main.go")

	c.diagMu.Lock()
	c.cache[uri] = cachedDiagnostics{
		diagnostics: []protocol.Diagnostic{{Message: "unused import"}},
		at:          time.Now(),
	}
	c.diagMu.Unlock()

	diags, err := c.WaitForDiagnostics(context.Background(), "/workspace/main.go")
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "unused import", diags[0].Message)
}

func TestWaitForDiagnosticsBlocksUntilPublish(t *testing.T) {
	c := newTestClient(t)
	path := "/workspace/main.go"
	uri := langutil.PathToURI(path)

	done := make(chan struct{})
	var diags []protocol.Diagnostic
	var err error
	go func() {
		diags, err = c.WaitForDiagnostics(context.Background(), path)
		close(done)
	}()

	// Give the waiter time to register before the publish arrives.
	time.Sleep(20 * time.Millisecond)
	c.handlePublishDiagnostics(&protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: []protocol.Diagnostic{{Message: "syntax error"}},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForDiagnostics did not return after publish")
	}

	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "syntax error", diags[0].Message)
}

func TestHandlePublishDiagnosticsFulfillsAllWaiters(t *testing.T) {
	c := newTestClient(t)
	path := "/workspace/main.go"
	uri := langutil.PathToURI(path)

	const waiterCount = 3
	results := make(chan []protocol.Diagnostic, waiterCount)
	for i := 0; i < waiterCount; i++ {
		go func() {
			diags, _ := c.WaitForDiagnostics(context.Background(), path)
			results <- diags
		}()
	}

	time.Sleep(20 * time.Millisecond)
	c.handlePublishDiagnostics(&protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: []protocol.Diagnostic{{Message: "one issue"}},
	})

	for i := 0; i < waiterCount; i++ {
		select {
		case diags := <-results:
			require.Len(t, diags, 1)
		case <-time.After(2 * time.Second):
			t.Fatal("not all waiters were fulfilled")
		}
	}
}

func TestWaitForDiagnosticsDeregistersWaiterOnContextCancellation(t *testing.T) {
	c := newTestClient(t)
	path := "/workspace/main.go"
	uri := langutil.PathToURI(path)

	// diagnosticsWaitTimeout is 10s, too slow to exercise directly in a
	// test; a canceled context drives the same deregisterWaiter call on
	// the other losing branch of the select in WaitForDiagnostics.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.WaitForDiagnostics(ctx, path)
	require.Error(t, err)

	c.diagMu.Lock()
	defer c.diagMu.Unlock()
	assert.Empty(t, c.waiters[uri])
}

func TestAllCachedDiagnosticsSnapshot(t *testing.T) {
	c := newTestClient(t)
	uriA := langutil.PathToURI("/workspace/a.go")
	uriB := langutil.PathToURI("/workspace/b.go")

	c.handlePublishDiagnostics(&protocol.PublishDiagnosticsParams{URI: protocol.DocumentUri(uriA)})
	c.handlePublishDiagnostics(&protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uriB),
		Diagnostics: []protocol.Diagnostic{{Message: "b has a problem"}},
	})

	all := c.AllCachedDiagnostics()
	require.Len(t, all, 2)
	assert.Empty(t, all[uriA])
	assert.Len(t, all[uriB], 1)
}
