// Package config loads the immutable set of configured LSP peers: it turns a
// YAML document into the PeerConfig records the rest of the bridge consumes,
// rejecting any peer without a command or without non-empty file patterns.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// PeerConfig is one configured language server: name, how to start it, which
// files it owns, and optional overrides. Immutable once loaded.
type PeerConfig struct {
	Name                  string            `mapstructure:"name"`
	Command               []string          `mapstructure:"command"`
	FilePatterns          []string          `mapstructure:"filePatterns"`
	InitializationOptions map[string]any    `mapstructure:"initializationOptions"`
	RootURI               string            `mapstructure:"rootUri"`
	Env                   map[string]string `mapstructure:"env"`
}

// Config is the full set of configured peers. Load builds Peers from a YAML
// map keyed by peer name, so their order does not follow the order written
// in the file and can differ from one load to the next.
type Config struct {
	Peers []PeerConfig `mapstructure:"peers"`
}

// rawConfig mirrors the on-disk shape: a map keyed by peer name rather than
// a list, which reads more naturally in a YAML config file.
type rawConfig struct {
	Peers map[string]PeerConfig `mapstructure:"peers"`
}

// Load reads the bridge configuration from configPath (or from the default
// search locations when configPath is empty), overlaying environment
// variables prefixed LSPMCP_. An absent config file is not an error: the
// bridge starts with zero peers and every tool call reports that condition
// (spec error kind "config absent").
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("lsp-mcp-bridge")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lsp-mcp-bridge")
	}

	v.SetEnvPrefix("LSPMCP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// With an explicit SetConfigFile, viper reads the path directly and a
		// missing file surfaces as a plain *fs.PathError rather than
		// viper.ConfigFileNotFoundError (which only the search-path branch
		// produces), so both must be treated as "no config".
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return &Config{}, nil
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := &Config{Peers: make([]PeerConfig, 0, len(raw.Peers))}
	for name, peer := range raw.Peers {
		peer.Name = name
		if err := validatePeer(peer); err != nil {
			return nil, fmt.Errorf("invalid config for peer %q: %w", name, err)
		}
		cfg.Peers = append(cfg.Peers, peer)
	}
	return cfg, nil
}

func validatePeer(p PeerConfig) error {
	if len(p.Command) == 0 {
		return fmt.Errorf("command is required")
	}
	if len(p.FilePatterns) == 0 {
		return fmt.Errorf("filePatterns is required")
	}
	for _, pattern := range p.FilePatterns {
		if strings.TrimSpace(pattern) == "" {
			return fmt.Errorf("empty glob pattern")
		}
	}
	return nil
}
