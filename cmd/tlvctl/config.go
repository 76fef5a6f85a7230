package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tlvwire/internal/logging"
	"github.com/danmuck/tlvwire/internal/protocol"
	"github.com/danmuck/tlvwire/internal/transport"
)

// cliConfig is the resolved tlvctl configuration after file and flag
// overrides.
type cliConfig struct {
	Limits     protocol.Limits
	Obfuscated bool
	LogLevel   string
	Journal    string
}

type fileConfig struct {
	MaxPacketBytes uint32 `toml:"max_packet_bytes"`
	MaxValueBytes  uint32 `toml:"max_value_bytes"`
	Obfuscated     bool   `toml:"obfuscated"`
	LogLevel       string `toml:"log_level"`
	Journal        string `toml:"journal"`
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Limits:  protocol.DefaultLimits(),
		Journal: "local/journal",
	}
}

func loadConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load tlvctl config: %w", err)
	}

	if meta.IsDefined("max_packet_bytes") {
		if raw.MaxPacketBytes == 0 {
			return cliConfig{}, fmt.Errorf("max_packet_bytes must be positive")
		}
		cfg.Limits.MaxPacketBytes = raw.MaxPacketBytes
	}

	if meta.IsDefined("max_value_bytes") {
		if raw.MaxValueBytes == 0 {
			return cliConfig{}, fmt.Errorf("max_value_bytes must be positive")
		}
		cfg.Limits.MaxValueBytes = raw.MaxValueBytes
	}

	if meta.IsDefined("obfuscated") {
		cfg.Obfuscated = raw.Obfuscated
	}

	if meta.IsDefined("log_level") {
		level := strings.TrimSpace(raw.LogLevel)
		if _, ok := logging.ParseLevel(level); !ok {
			return cliConfig{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("journal") {
		if dir := strings.TrimSpace(raw.Journal); dir != "" {
			cfg.Journal = dir
		}
	}

	return cfg, nil
}

func (c cliConfig) transportOptions() transport.Options {
	opts := transport.DefaultOptions()
	opts.Limits = c.Limits
	opts.Obfuscated = c.Obfuscated
	return opts
}
