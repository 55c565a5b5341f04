package lspclient

import (
	"context"
	"fmt"
	"os"

	"go.lsp.dev/protocol"

	"github.com/wiredcode/lsp-mcp-bridge/internal/langutil"
)

// openDoc tracks the bridge's view of a document's sync state with one peer.
type openDoc struct {
	version int32
	text    string
}

// EnsureOpen opens uri with the peer if it isn't already tracked, reading
// its current contents from disk. Reopening an already-open document is a
// no-op: the bridge does not re-read the file or bump the version just
// because a tool was invoked against it again (spec.md §4.1 document sync).
func (c *Client) EnsureOpen(ctx context.Context, path string) error {
	uri := langutil.PathToURI(path)

	c.docsMu.Lock()
	_, open := c.docs[uri]
	c.docsMu.Unlock()
	if open {
		return nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	c.docsMu.Lock()
	c.docs[uri] = &openDoc{version: 1, text: string(contents)}
	c.docsMu.Unlock()

	return c.notify(ctx, "textDocument/didOpen", &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        protocol.DocumentUri(uri),
			LanguageID: protocol.LanguageIdentifier(langutil.DetectLanguageID(path)),
			Version:    1,
			Text:       string(contents),
		},
	})
}

// NotifyChange sends a full-document didChange for path with the given new
// text, bumping the tracked version. Versions are strictly monotonic per
// document per client, matching the teacher's single-client document table.
func (c *Client) NotifyChange(ctx context.Context, path, text string) error {
	uri := langutil.PathToURI(path)

	c.docsMu.Lock()
	doc, open := c.docs[uri]
	if !open {
		doc = &openDoc{version: 1}
		c.docs[uri] = doc
	}
	doc.version++
	doc.text = text
	version := doc.version
	c.docsMu.Unlock()

	return c.notify(ctx, "textDocument/didChange", &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
			Version:                version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: text}},
	})
}

// NotifySave sends didSave for an already-open document.
func (c *Client) NotifySave(ctx context.Context, path string) error {
	uri := langutil.PathToURI(path)

	c.docsMu.Lock()
	doc, open := c.docs[uri]
	c.docsMu.Unlock()
	if !open {
		return c.EnsureOpen(ctx, path)
	}

	return c.notify(ctx, "textDocument/didSave", &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
		Text:         doc.text,
	})
}

// NotifyClose sends didClose and drops the document from the tracked table,
// so a later call re-reads the file from disk and reopens at version 1.
func (c *Client) NotifyClose(ctx context.Context, path string) error {
	uri := langutil.PathToURI(path)

	c.docsMu.Lock()
	_, open := c.docs[uri]
	delete(c.docs, uri)
	c.docsMu.Unlock()
	if !open {
		return nil
	}

	return c.notify(ctx, "textDocument/didClose", &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentUri(uri)},
	})
}

// IsOpen reports whether path is currently tracked as open with this peer.
func (c *Client) IsOpen(path string) bool {
	uri := langutil.PathToURI(path)
	c.docsMu.Lock()
	defer c.docsMu.Unlock()
	_, open := c.docs[uri]
	return open
}
