package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
// Everything has a sensible default so a bare `tomato` just works.
type Config struct {
	DBPath   string `envconfig:"TOMATO_DB"`
	LogFile  string `envconfig:"TOMATO_LOG_FILE"`
	LogLevel string `envconfig:"TOMATO_LOG_LEVEL" default:"info"`

	// Theme overrides the persisted theme setting when set (light|dark|system).
	Theme string `envconfig:"TOMATO_THEME"`
}

// Load reads configuration from the environment and fills in default paths
// under the user config directory.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env config: %w", err)
	}

	if cfg.DBPath == "" || cfg.LogFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return cfg, fmt.Errorf("resolve user config dir: %w", err)
		}
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(dir, "tomato", "tomato.db")
		}
		if cfg.LogFile == "" {
			cfg.LogFile = filepath.Join(dir, "tomato", "tomato.log")
		}
	}

	if cfg.Theme != "" && cfg.Theme != "light" && cfg.Theme != "dark" && cfg.Theme != "system" {
		return cfg, fmt.Errorf("invalid TOMATO_THEME %q: want light, dark or system", cfg.Theme)
	}

	return cfg, nil
}
