package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// NormalizeResult records non-fatal adjustments made while normalizing.
type NormalizeResult struct {
	Warnings []string
}

// Normalize applies defaults and canonicalizes the configuration in place.
// Unknown values degrade to defaults with a recorded warning; hard failures
// are left to Validate.
func Normalize(cfg *Config) NormalizeResult {
	var res NormalizeResult

	// Canonicalize format names before defaulting so "PDF:" in the file
	// merges with the built-in pdf profile.
	if cfg.Formats != nil {
		canonical := make(map[string]FormatProfile, len(cfg.Formats))
		for name, p := range cfg.Formats {
			lower := strings.ToLower(strings.TrimSpace(name))
			if lower != name {
				res.Warnings = append(res.Warnings, fmt.Sprintf("format name %q normalized to %q", name, lower))
			}
			canonical[lower] = p
		}
		cfg.Formats = canonical
	}
	for i, name := range cfg.Order {
		cfg.Order[i] = strings.ToLower(strings.TrimSpace(name))
	}

	applyDefaults(cfg)

	if cfg.Serve.Port < 0 || cfg.Serve.Port > 65535 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("serve.port %d out of range, using 4000", cfg.Serve.Port))
		cfg.Serve.Port = 4000
	}
	if cfg.Serve.DebounceMS < 0 {
		res.Warnings = append(res.Warnings, "serve.debounce_ms negative, using 300")
		cfg.Serve.DebounceMS = 300
	}

	cfg.Output.Directory = filepath.Clean(cfg.Output.Directory)

	return res
}
