package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/airdate/internal/log"
)

// LocalConfigPath is the project-local config file checked before the user
// config.
const LocalConfigPath = ".airdate/config.yaml"

// UserConfigDir returns ~/.config/airdate.
func UserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "airdate")
}

// Load reads configuration into a fresh viper instance. An explicit path wins;
// otherwise LocalConfigPath, then ~/.config/airdate/config.yaml. When no file
// exists anywhere, a default one is written at LocalConfigPath. AIRDATE_*
// environment variables override file values (AIRDATE_STORAGE_BACKEND for
// storage.backend). Load returns the decoded config and the file it came
// from, which is empty when no file could be read.
func Load(explicitPath string) (Config, string, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AIRDATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case explicitPath != "":
		if !fileExists(explicitPath) {
			return Config{}, "", fmt.Errorf("config file %s: %w", explicitPath, os.ErrNotExist)
		}
		v.SetConfigFile(explicitPath)
	case fileExists(LocalConfigPath):
		v.SetConfigFile(LocalConfigPath)
	default:
		if dir := UserConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if writeErr := WriteDefaultConfig(LocalConfigPath); writeErr == nil {
				v.SetConfigFile(LocalConfigPath)
				_ = v.ReadInConfig()
			}
		default:
			return Config{}, "", fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, "", fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Tracing.Enabled && cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = DefaultTracesFilePath()
	}

	used := v.ConfigFileUsed()
	log.Debug(log.CatConfig, "Loaded config", "path", used, "backend", cfg.Storage.Backend)
	return cfg, used, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("history.max_size", d.History.MaxSize)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("ui.show_counts", d.UI.ShowCounts)
	v.SetDefault("ui.show_stats", d.UI.ShowStats)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
