// Package config loads CLI configuration from a YAML file, with sensible
// defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for the tool.
type Config struct {
	// StorePath is the JSON record store location.
	StorePath string `yaml:"store_path"`

	// RetentionDays controls backup rotation: a backup older than this
	// many days is refreshed on the next save. Zero or negative means a
	// backup is always eligible for refresh.
	RetentionDays int `yaml:"retention_days"`

	// RulesFile optionally overrides the embedded categorization rules.
	RulesFile string `yaml:"rules_file"`

	// HistoryPath is the SQLite import-ledger location.
	HistoryPath string `yaml:"history_path"`
}

// Default returns the configuration used when no file is given, rooted
// under the user's home directory.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".balanceact")
	return Config{
		StorePath:     filepath.Join(base, "expenses.json"),
		RetentionDays: 1,
		HistoryPath:   filepath.Join(base, "imports.db"),
	}
}

// Load reads a YAML config file, filling unset fields with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.StorePath == "" {
		return cfg, fmt.Errorf("config %s: store_path must not be empty", path)
	}

	return cfg, nil
}
