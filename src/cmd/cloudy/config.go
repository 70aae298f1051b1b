package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var errNoHomeDir = errors.New("home directory unavailable")

// CLIConfig holds configuration loaded from ~/.cloudy/cloudy-cli.yaml
type CLIConfig struct {
	TermBackground string `yaml:"term_background"`  // "light", "dark", or "auto" (auto defaults to dark)
	HistoryFile    string `yaml:"history_file"`     // REPL history; relative paths live in the config directory
	Debug          bool   `yaml:"debug"`            // same as -debug
	ScriptCacheTTL string `yaml:"script_cache_ttl"` // Go duration, "0" disables the run() cache
}

func defaultCLIConfig() CLIConfig {
	return CLIConfig{
		TermBackground: "auto",
		HistoryFile:    "history",
		ScriptCacheTTL: "5m",
	}
}

const defaultConfigText = `# cloudy CLI configuration
# This file is automatically created on first run

# Terminal background color for REPL colors: auto, dark or light
term_background: auto

# REPL history file, relative to this directory
history_file: history

# Enable debug logging for every run
debug: false

# How long run() keeps parsed scripts; 0 disables caching
script_cache_ttl: 5m
`

// getConfigDir returns the path to ~/.cloudy
func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", errNoHomeDir
	}
	return filepath.Join(home, ".cloudy"), nil
}

// loadCLIConfig reads the config file, creating it with defaults when missing
func loadCLIConfig() (CLIConfig, string, error) {
	cfg := defaultCLIConfig()

	dir, err := getConfigDir()
	if err != nil {
		return cfg, "", err
	}
	path := filepath.Join(dir, "cloudy-cli.yaml")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, dir, createDefaultConfig(path)
	}
	if err != nil {
		return cfg, dir, errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaultCLIConfig(), dir, errors.Wrapf(err, "parse %s", path)
	}
	cfg.TermBackground = strings.ToLower(strings.TrimSpace(cfg.TermBackground))
	return cfg, dir, nil
}

// createDefaultConfig writes the default config file
func createDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	return errors.Wrapf(os.WriteFile(path, []byte(defaultConfigText), 0644), "write %s", path)
}

// lightBackground reports whether REPL colors should suit a light terminal
func (c CLIConfig) lightBackground() bool {
	return c.TermBackground == "light"
}

// cacheTTL parses script_cache_ttl, falling back to the default on bad input
func (c CLIConfig) cacheTTL() (time.Duration, error) {
	if c.ScriptCacheTTL == "" || c.ScriptCacheTTL == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ScriptCacheTTL)
	if err != nil {
		return 5 * time.Minute, errors.Wrapf(err, "script_cache_ttl %q", c.ScriptCacheTTL)
	}
	return d, nil
}

// historyPath resolves history_file against the config directory
func (c CLIConfig) historyPath(dir string) string {
	if c.HistoryFile == "" || dir == "" {
		return ""
	}
	if filepath.IsAbs(c.HistoryFile) {
		return c.HistoryFile
	}
	return filepath.Join(dir, c.HistoryFile)
}
