package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads environment variables from .env/.env.local, stopping at
// the first file that parses. Existing process environment is not overwritten.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			slog.Info("Loaded environment variables", "file", envPath)
			return
		}
	}
}

// applyEnvOverrides applies BOOKFORGE_* environment overrides on top of the
// parsed configuration. Environment wins over the file, the CLI wins over both.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOOKFORGE_PANDOC"); v != "" {
		cfg.Pandoc = v
	}
	if v := os.Getenv("BOOKFORGE_OUTPUT_DIR"); v != "" {
		cfg.Output.Directory = v
	}
	if v := os.Getenv("BOOKFORGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Serve.Port = port
		}
	}
	if v := os.Getenv("BOOKFORGE_NATS_URL"); v != "" {
		cfg.Notify.URL = v
	}
}
