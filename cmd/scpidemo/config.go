package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dshills/scpi"
)

// Config is the resolved demo configuration.
type Config struct {
	Identity      scpi.Identity
	Limits        scpi.Limits
	HistoryFile   string
	MetricsListen string
	LogLevel      string
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Identity: scpi.Identity{
			Manufacturer: "SCPI Demo",
			Model:        "SIM-1000",
			Serial:       "0",
			Firmware:     "dev",
		},
		Limits:   scpi.DefaultLimits(),
		LogLevel: "info",
	}
}

type fileConfig struct {
	Manufacturer  string `toml:"manufacturer"`
	Model         string `toml:"model"`
	Serial        string `toml:"serial"`
	Firmware      string `toml:"firmware"`
	MaxSegments   int    `toml:"max_segments"`
	MaxArgs       int    `toml:"max_args"`
	MaxStringLen  int    `toml:"max_string_len"`
	MaxErrors     int    `toml:"max_errors"`
	HistoryFile   string `toml:"history_file"`
	MetricsListen string `toml:"metrics_listen"`
	LogLevel      string `toml:"log_level"`
}

func loadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undec[0].String())
	}

	if meta.IsDefined("manufacturer") {
		cfg.Identity.Manufacturer = strings.TrimSpace(raw.Manufacturer)
	}
	if meta.IsDefined("model") {
		cfg.Identity.Model = strings.TrimSpace(raw.Model)
	}
	if meta.IsDefined("serial") {
		cfg.Identity.Serial = strings.TrimSpace(raw.Serial)
	}
	if meta.IsDefined("firmware") {
		cfg.Identity.Firmware = strings.TrimSpace(raw.Firmware)
	}
	if meta.IsDefined("max_segments") {
		cfg.Limits.MaxSegments = raw.MaxSegments
	}
	if meta.IsDefined("max_args") {
		cfg.Limits.MaxArgs = raw.MaxArgs
	}
	if meta.IsDefined("max_string_len") {
		cfg.Limits.MaxStringLen = raw.MaxStringLen
	}
	if meta.IsDefined("max_errors") {
		cfg.Limits.MaxErrors = raw.MaxErrors
	}
	if meta.IsDefined("history_file") {
		cfg.HistoryFile = strings.TrimSpace(raw.HistoryFile)
	}
	if meta.IsDefined("metrics_listen") {
		cfg.MetricsListen = strings.TrimSpace(raw.MetricsListen)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}

	return cfg, nil
}
