package config

import (
	"fmt"

	"github.com/bookforge/bookforge/internal/errors"
)

// Validate enforces the data-model invariants: a non-empty ordered source
// list, and every name in the composite build order mapping to exactly one
// Format Profile with an output path.
func Validate(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return errors.ConfigRequired("sources")
	}
	if cfg.Metadata == "" {
		return errors.ConfigRequired("metadata")
	}
	if cfg.Output.Directory == "" {
		return errors.ConfigRequired("output.directory")
	}

	seen := map[string]bool{}
	for _, name := range cfg.Order {
		if seen[name] {
			return errors.ValidationFailed("order", fmt.Sprintf("format %q listed twice", name))
		}
		seen[name] = true
		if _, ok := cfg.Formats[name]; !ok {
			return errors.UnknownFormat(name).WithContext("field", "order")
		}
	}

	for name, p := range cfg.Formats {
		if p.Output == "" {
			return errors.ValidationFailed("formats", fmt.Sprintf("format %q has no output path", name))
		}
	}
	return nil
}
