// internal/config/config.go

// Package config resolves tool settings from defaults, an optional
// config file, and APPTAINER_COMPOSE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName names the config directory under ~/.config.
	AppName = "apptainer-compose"

	envPrefix = "APPTAINER_COMPOSE"
)

// Config carries the resolved settings.
type Config struct {
	// File is the compose document to operate on.
	File string `mapstructure:"file"`
	// Binary is the container runtime executable.
	Binary string `mapstructure:"binary"`
	// WritableTmpfs adds an ephemeral overlay on run/up.
	WritableTmpfs bool `mapstructure:"writable_tmpfs"`
	// LogLevel is the minimum level emitted (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		File:          "compose.yaml",
		Binary:        "apptainer",
		WritableTmpfs: false,
		LogLevel:      "info",
	}
}

// Dir returns the configuration directory, honoring XDG_CONFIG_HOME.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// Load resolves settings in precedence order: environment overrides,
// then the optional config file, then defaults. A missing config file
// is not an error.
func Load() (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("file", defaults.File)
	v.SetDefault("binary", defaults.Binary)
	v.SetDefault("writable_tmpfs", defaults.WritableTmpfs)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir, err := Dir(); err == nil {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
