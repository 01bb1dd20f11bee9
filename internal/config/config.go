// Package config provides configuration types, defaults, and persistence for airdate.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/airdate/internal/log"
	"github.com/zjrosen/airdate/internal/store"
	"github.com/zjrosen/airdate/internal/tracing"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds all configuration options for airdate.
type Config struct {
	Storage StorageConfig  `mapstructure:"storage"`
	History HistoryConfig  `mapstructure:"history"`
	Tracing tracing.Config `mapstructure:"tracing"`
	UI      UIConfig       `mapstructure:"ui"`
}

// StorageConfig selects where store snapshots are persisted.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "file" (default), "sqlite" or "memory"
	// Path is a directory for the file backend and a database file for sqlite.
	Path string `mapstructure:"path"`
	Key  string `mapstructure:"key"` // blob key, default "airdate-state"
}

// HistoryConfig bounds the undo stack.
type HistoryConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowCounts bool `mapstructure:"show_counts"` // Show per-day counts in headers
	ShowStats  bool `mapstructure:"show_stats"`  // Show the stats line
}

// DataDir returns the default directory for stored state.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".airdate"
	}
	return filepath.Join(home, ".local", "share", "airdate")
}

// DefaultStoragePath returns the default path for backend.
func DefaultStoragePath(backend string) string {
	if backend == BackendSQLite {
		return filepath.Join(DataDir(), "airdate.db")
	}
	return DataDir()
}

// DefaultTracesFilePath returns the default trace file location.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "airdate", "traces", "traces.jsonl")
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Path:    "", // Derived from backend at runtime
			Key:     "airdate-state",
		},
		History: HistoryConfig{
			MaxSize: store.DefaultMaxHistorySize,
		},
		Tracing: tracing.DefaultConfig(),
		UI: UIConfig{
			ShowCounts: true,
			ShowStats:  true,
		},
	}
}

// ResolvedStoragePath returns the configured storage path, or the backend's
// default.
func (c Config) ResolvedStoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return DefaultStoragePath(c.Storage.Backend)
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := ValidateStorage(c.Storage); err != nil {
		return err
	}
	if err := ValidateHistory(c.History); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateStorage checks the storage section.
func ValidateStorage(storage StorageConfig) error {
	switch storage.Backend {
	case "", BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be \"file\", \"sqlite\", or \"memory\", got %q", storage.Backend)
	}
	return nil
}

// ValidateHistory checks the history section. Zero means the default.
func ValidateHistory(history HistoryConfig) error {
	if history.MaxSize < 0 {
		return fmt.Errorf("history.max_size must not be negative, got %d", history.MaxSize)
	}
	return nil
}

// ValidateTracing checks the tracing section.
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	switch cfg.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
	}

	if cfg.Enabled && cfg.Exporter == tracing.ExporterOTLP && cfg.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# airdate configuration

# Where the show list is stored
storage:
  backend: file           # file (default), sqlite, or memory
  # path: ~/.local/share/airdate   # directory for file, database file for sqlite
  key: airdate-state      # name of the stored snapshot

# Undo history
history:
  max_size: 50            # number of undo steps kept

# UI settings
ui:
  show_counts: true       # Show show counts in day headers
  show_stats: true        # Show the stats line

# Tracing of snapshot saves and loads
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/airdate/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
