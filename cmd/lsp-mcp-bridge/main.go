package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wiredcode/lsp-mcp-bridge/internal/config"
	"github.com/wiredcode/lsp-mcp-bridge/internal/dispatch"
	"github.com/wiredcode/lsp-mcp-bridge/internal/logging"
	"github.com/wiredcode/lsp-mcp-bridge/internal/mcpserver"
	"github.com/wiredcode/lsp-mcp-bridge/internal/multiplexer"
)

const (
	serverName    = "lsp-mcp-bridge"
	serverVersion = "0.1.0"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "lsp-mcp-bridge [project-root]",
		Short: "Bridge one or more Language Server Protocol peers to a Model Context Protocol front-end",
		Long: `lsp-mcp-bridge adapts any number of LSP language servers to a single MCP
stdio server, routing each file to the peer whose glob patterns match it and
normalizing the polymorphic shapes LSP replies with into stable JSON.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         run,
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to the bridge's YAML config file (default: lsp-mcp-bridge.yaml in the working directory, then in $HOME/.config/lsp-mcp-bridge)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := logging.Component("main")
	defer logging.Sync()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve project root: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Peers) == 0 {
		logger.Warnw("no LSP peers configured; every tool call will report the condition", "root", absRoot)
	}

	mux := multiplexer.New(absRoot, cfg.Peers)
	dispatcher := dispatch.New(absRoot, mux)
	srv := mcpserver.New(serverName, serverVersion, dispatcher)

	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Claude Desktop and similar hosts don't reliably kill child MCP server
	// processes when they exit, so watch for reparenting to pid 1 as a
	// second shutdown trigger alongside signals.
	parentDeath := make(chan struct{})
	go monitorParent(done, parentDeath, logger)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Infow("received signal, shutting down", "signal", sig)
		case <-parentDeath:
			logger.Infow("parent process terminated, shutting down")
		}
		shutdown(mux, done, logger)
	}()

	logger.Infow("starting MCP server over stdio", "root", absRoot, "peers", len(cfg.Peers))
	if err := srv.ServeStdio(); err != nil {
		logger.Errorw("server error", "error", err)
		shutdown(mux, done, logger)
		return err
	}

	<-done
	logger.Infow("shutdown complete")
	return nil
}

func monitorParent(done, parentDeath chan struct{}, logger interface{ Debugw(string, ...any) }) {
	ppid := os.Getppid()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			currentPpid := os.Getppid()
			if currentPpid != ppid && (currentPpid == 1 || ppid == 1) {
				close(parentDeath)
				return
			}
		case <-done:
			return
		}
	}
}

func shutdown(mux *multiplexer.Multiplexer, done chan struct{}, logger interface {
	Infow(string, ...any)
}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Infow("shutting down LSP peers")
	mux.ShutdownAll(ctx)

	select {
	case <-done:
	default:
		close(done)
	}
}
