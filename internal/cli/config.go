package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/eshaffer321/billmatch/internal/infrastructure/config"
	"github.com/eshaffer321/billmatch/internal/infrastructure/logging"
)

// LoadConfig loads the config file at path. With an empty path the usual
// file names are tried, then environment variables.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		for _, candidate := range []string{"config.yaml", "config.yml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path == "" {
		return config.LoadFromEnv(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// NewLogger builds the logger for a command
func NewLogger(cfg *config.Config, system string, verbose bool) *slog.Logger {
	loggingCfg := cfg.Observability.Logging
	if verbose {
		loggingCfg.Level = "debug"
	}
	return logging.NewLoggerWithSystem(loggingCfg, system)
}
