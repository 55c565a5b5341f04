// Package lspclient implements the per-peer LSP client: subprocess
// lifecycle, the JSON-RPC connection, the initialize handshake, document
// synchronization, and diagnostics caching with freshness-gated waiters.
package lspclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/wiredcode/lsp-mcp-bridge/internal/extension"
	"github.com/wiredcode/lsp-mcp-bridge/internal/logging"
)

// State is the client lifecycle state (spec.md §4.1).
type State int32

// rpcConn is the slice of jsonrpc2.Conn the client actually calls. Narrowing
// to an interface we own keeps tests free of a real subprocess connection.
type rpcConn interface {
	Call(ctx context.Context, method string, params, result any) error
	Notify(ctx context.Context, method string, params any) error
	Close() error
}

const (
	StateIdle State = iota
	StateStarting
	StateReady
	StateStopping
	StateDead
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateStopping:
		return "stopping"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

const (
	diagnosticsFreshWindow = 500 * time.Millisecond
	diagnosticsWaitTimeout = 10 * time.Second
	shutdownTimeout        = 5 * time.Second
)

// Config is the subset of a configured peer the client needs to start.
type Config struct {
	Name                  string
	Command               []string
	RootPath              string
	RootURI               string
	InitializationOptions map[string]any
	Env                   map[string]string
}

// Client owns one LSP peer subprocess end to end.
type Client struct {
	cfg    Config
	logger *zap.SugaredLogger

	state atomic.Int32

	cmd  *exec.Cmd
	conn rpcConn

	capabilities   protocol.ServerCapabilities
	capabilitiesMu sync.RWMutex

	extensions []extension.Descriptor

	docsMu sync.Mutex
	docs   map[string]*openDoc

	diagMu  sync.Mutex
	cache   map[string]cachedDiagnostics
	waiters map[string][]chan []protocol.Diagnostic
}

// New constructs a client in the Idle state. The subprocess is not spawned
// until Start is called (spec.md §4.2 lazy startup).
func New(cfg Config) *Client {
	c := &Client{
		cfg:        cfg,
		logger:     logging.Component(cfg.Name),
		docs:       make(map[string]*openDoc),
		cache:      make(map[string]cachedDiagnostics),
		waiters:    make(map[string][]chan []protocol.Diagnostic),
		extensions: extension.ForCommand(cfg.Command),
	}
	c.state.Store(int32(StateIdle))
	return c
}

// Name returns the configured peer name.
func (c *Client) Name() string { return c.cfg.Name }

// State returns the client's current lifecycle state.
func (c *Client) State() State { return State(c.state.Load()) }

// Extensions returns the protocol extensions declared for this peer's
// command, regardless of whether the client has started.
func (c *Client) Extensions() []extension.Descriptor { return c.extensions }

// Start spawns the subprocess, performs the initialize/initialized
// handshake, and transitions Idle -> Starting -> Ready (or -> Dead on
// failure). Start is not safe to call concurrently with itself.
func (c *Client) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return fmt.Errorf("client %s: start called from state %s", c.cfg.Name, c.State())
	}

	cmd := exec.CommandContext(context.Background(), c.cfg.Command[0], c.cfg.Command[1:]...)
	cmd.Dir = c.cfg.RootPath
	cmd.Env = mergeEnv(os.Environ(), c.cfg.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.state.Store(int32(StateDead))
		return fmt.Errorf("client %s: stdin pipe: %w", c.cfg.Name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.state.Store(int32(StateDead))
		return fmt.Errorf("client %s: stdout pipe: %w", c.cfg.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		c.state.Store(int32(StateDead))
		return fmt.Errorf("client %s: stderr pipe: %w", c.cfg.Name, err)
	}

	if err := cmd.Start(); err != nil {
		c.state.Store(int32(StateDead))
		return fmt.Errorf("client %s: spawn: %w", c.cfg.Name, err)
	}
	c.cmd = cmd

	go c.forwardStderr(stderr)
	go c.watchExit()

	stream := jsonrpc2.NewStream(pipeRWC{stdout: stdout, stdin: stdin})
	conn := jsonrpc2.NewConn(stream)
	conn.Go(context.Background(), c.handleIncoming)
	c.conn = conn

	if err := c.initialize(ctx); err != nil {
		c.state.Store(int32(StateDead))
		_ = c.conn.Close()
		return fmt.Errorf("client %s: initialize: %w", c.cfg.Name, err)
	}

	c.state.Store(int32(StateReady))
	c.logger.Infow("peer ready")
	return nil
}

func mergeEnv(base []string, overrides map[string]string) []string {
	env := append([]string{}, base...)
	for k, v := range overrides {
		env = append(env, k+"="+v)
	}
	return env
}

// forwardStderr copies the peer's stderr to the component log line by line,
// the same way dphaener-conduit's server tags subprocess stderr with the
// owning component name instead of letting it leak to the bridge's own
// stderr unlabeled.
func (c *Client) forwardStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		c.logger.Debugw("peer stderr", "line", scanner.Text())
	}
}

func (c *Client) watchExit() {
	if c.cmd == nil {
		return
	}
	err := c.cmd.Wait()
	if c.State() != StateStopping {
		if err != nil {
			c.logger.Warnw("peer exited unexpectedly", "error", err)
		} else {
			c.logger.Warnw("peer exited unexpectedly")
		}
	}
	c.state.Store(int32(StateDead))
}

func (c *Client) initialize(ctx context.Context) error {
	rootURI := c.cfg.RootURI
	if rootURI == "" {
		rootURI = "file://" + c.cfg.RootPath
	}

	symbolKinds := []protocol.SymbolKind{
		protocol.SymbolKindFile, protocol.SymbolKindModule, protocol.SymbolKindNamespace,
		protocol.SymbolKindPackage, protocol.SymbolKindClass, protocol.SymbolKindMethod,
		protocol.SymbolKindProperty, protocol.SymbolKindField, protocol.SymbolKindConstructor,
		protocol.SymbolKindEnum, protocol.SymbolKindInterface, protocol.SymbolKindFunction,
		protocol.SymbolKindVariable, protocol.SymbolKindConstant, protocol.SymbolKindString,
		protocol.SymbolKindNumber, protocol.SymbolKindBoolean, protocol.SymbolKindArray,
		protocol.SymbolKindObject, protocol.SymbolKindKey, protocol.SymbolKindNull,
		protocol.SymbolKindEnumMember, protocol.SymbolKindStruct, protocol.SymbolKindEvent,
		protocol.SymbolKindOperator, protocol.SymbolKindTypeParameter,
	}

	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		ClientInfo: &protocol.ClientInfo{
			Name:    "lsp-mcp-bridge",
			Version: "0.1.0",
		},
		RootURI: protocol.DocumentUri(rootURI),
		Capabilities: protocol.ClientCapabilities{
			Workspace: &protocol.WorkspaceClientCapabilities{
				ApplyEdit:     true,
				WorkspaceEdit: &protocol.WorkspaceEditClientCapabilities{DocumentChanges: true},
				Symbol: &protocol.WorkspaceSymbolClientCapabilities{
					SymbolKind: &protocol.SymbolKindCapabilities{ValueSet: symbolKinds},
				},
			},
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Synchronization: &protocol.TextDocumentSyncClientCapabilities{
					DidSave: true,
				},
				Hover: &protocol.HoverTextDocumentClientCapabilities{
					ContentFormat: []protocol.MarkupKind{protocol.Markdown, protocol.PlainText},
				},
				Definition:     &protocol.DefinitionTextDocumentClientCapabilities{LinkSupport: false},
				TypeDefinition: &protocol.TypeDefinitionTextDocumentClientCapabilities{LinkSupport: false},
				Implementation: &protocol.ImplementationTextDocumentClientCapabilities{LinkSupport: false},
				Declaration:    &protocol.DeclarationTextDocumentClientCapabilities{LinkSupport: false},
				References:     &protocol.ReferencesTextDocumentClientCapabilities{},
				SignatureHelp: &protocol.SignatureHelpTextDocumentClientCapabilities{
					SignatureInformation: &protocol.TextDocumentClientCapabilitiesSignatureInformation{
						DocumentationFormat: []protocol.MarkupKind{protocol.Markdown},
					},
				},
				DocumentSymbol: &protocol.DocumentSymbolClientCapabilities{
					HierarchicalDocumentSymbolSupport: true,
					SymbolKind:                        &protocol.SymbolKindCapabilities{ValueSet: symbolKinds},
				},
				CodeAction: &protocol.CodeActionClientCapabilities{},
				Rename: &protocol.RenameClientCapabilities{
					PrepareSupport: true,
				},
				PublishDiagnostics: &protocol.PublishDiagnosticsClientCapabilities{
					RelatedInformation: true,
					TagSupport:         &protocol.PublishDiagnosticsClientCapabilitiesTagSupport{ValueSet: []protocol.DiagnosticTag{1, 2}},
				},
				CallHierarchy: &protocol.CallHierarchyClientCapabilities{},
				TypeHierarchy: &protocol.TypeHierarchyClientCapabilities{},
			},
		},
		InitializationOptions: c.cfg.InitializationOptions,
		Trace:                 protocol.TraceOff,
	}

	var result protocol.InitializeResult
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return err
	}

	c.capabilitiesMu.Lock()
	c.capabilities = result.Capabilities
	c.capabilitiesMu.Unlock()

	return c.conn.Notify(ctx, "initialized", &protocol.InitializedParams{})
}

// call issues a request and unmarshals the peer's reply into result.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if err := c.conn.Call(ctx, method, params, result); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// callRaw is call with the result left as a json.RawMessage, for the
// polymorphic LSP responses the dispatcher normalizes by structural shape.
func (c *Client) callRaw(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.call(ctx, method, params, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// notify sends a fire-and-forget notification.
func (c *Client) notify(ctx context.Context, method string, params any) error {
	return c.conn.Notify(ctx, method, params)
}

// Shutdown performs the shutdown/exit handshake bounded by shutdownTimeout,
// force-killing the subprocess on timeout or error. Never returns an error
// to callers — shutdown failures are logged, not propagated (spec.md §4.1).
func (c *Client) Shutdown(ctx context.Context) {
	if c.State() != StateReady {
		if c.cmd != nil && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		c.state.Store(int32(StateDead))
		return
	}

	c.state.Store(int32(StateStopping))

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.call(shutdownCtx, "shutdown", nil, nil); err != nil {
			c.logger.Warnw("shutdown request failed", "error", err)
			return
		}
		_ = c.notify(shutdownCtx, "exit", nil)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		c.logger.Warnw("shutdown timed out, killing peer")
	}

	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	c.state.Store(int32(StateDead))
}
