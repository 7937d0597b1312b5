// Package config loads and validates the bookforge configuration: the book's
// ordered chapter sources, the per-format conversion profiles, the asset
// pipeline inputs, and the preview/notify settings.
package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bookforge/bookforge/internal/errors"
)

// Config represents the application configuration
type Config struct {
	Title    string                   `yaml:"title"`
	Pandoc   string                   `yaml:"pandoc,omitempty"`
	Metadata string                   `yaml:"metadata"`
	Sources  []string                 `yaml:"sources"`
	Output   OutputConfig             `yaml:"output"`
	Formats  map[string]FormatProfile `yaml:"formats"`
	Order    []string                 `yaml:"order,omitempty"`
	Assets   AssetsConfig             `yaml:"assets"`
	Serve    ServeConfig              `yaml:"serve"`
	Notify   NotifyConfig             `yaml:"notify"`
}

// FormatProfile holds the fixed conversion parameters for one output format.
// Profiles are resolved once at load time and never mutated afterwards.
type FormatProfile struct {
	Output   string   `yaml:"output"`             // relative to Output.Directory
	Template string   `yaml:"template,omitempty"` // optional conversion template
	Filters  []string `yaml:"filters,omitempty"`  // ordered content filters
	Metadata string   `yaml:"metadata,omitempty"` // defaults to Config.Metadata
	// SelfContained asks the conversion tool to embed assets into the output.
	SelfContained bool `yaml:"self_contained,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// AssetsConfig describes the inputs of the auxiliary asset tasks.
type AssetsConfig struct {
	SassBin    string   `yaml:"sass_bin,omitempty"`
	SassEntry  string   `yaml:"sass_entry,omitempty"`
	Stylesheet string   `yaml:"stylesheet,omitempty"` // compiled CSS, relative to output dir
	Scripts    []string `yaml:"scripts,omitempty"`    // ordered bundle inputs
	Bundle     string   `yaml:"bundle,omitempty"`     // bundled JS, relative to output dir
	Template   string   `yaml:"template,omitempty"`   // source HTML template with link/script refs
}

// ServeConfig configures the preview server and watch loop.
type ServeConfig struct {
	Port       int    `yaml:"port,omitempty"`
	DebounceMS int    `yaml:"debounce_ms,omitempty"`
	// RebuildSchedule is an optional cron expression for a periodic full
	// rebuild during long-lived preview sessions. Empty disables it.
	RebuildSchedule string `yaml:"rebuild_schedule,omitempty"`
}

// NotifyConfig configures optional build-event publishing over NATS.
// Publishing is disabled when URL is empty.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads, normalizes, and validates a configuration file.
func Load(path string) (*Config, error) {
	// Load environment variables from .env files first (best effort)
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to read configuration file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "failed to parse configuration file").
			WithContext("path", path)
	}

	applyEnvOverrides(&cfg)

	res := Normalize(&cfg)
	for _, w := range res.Warnings {
		slog.Warn("Configuration adjusted", "detail", w)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ProfileFor resolves the Format Profile for a format name. Unknown names are
// a configuration error, reported before any external process is spawned.
func (c *Config) ProfileFor(name string) (FormatProfile, error) {
	p, ok := c.Formats[name]
	if !ok {
		return FormatProfile{}, errors.UnknownFormat(name)
	}
	return p, nil
}

// OutputPath returns the absolute location of a profile's artifact.
func (c *Config) OutputPath(p FormatProfile) string {
	return filepath.Join(c.Output.Directory, p.Output)
}

// StylesheetPath returns the compiled stylesheet location under the output directory.
func (c *Config) StylesheetPath() string {
	return filepath.Join(c.Output.Directory, c.Assets.Stylesheet)
}

// BundlePath returns the bundled script location under the output directory.
func (c *Config) BundlePath() string {
	return filepath.Join(c.Output.Directory, c.Assets.Bundle)
}

// InlinedTemplatePath is where the stylesheet inliner writes the
// self-contained variant of the source HTML template.
func (c *Config) InlinedTemplatePath() string {
	return filepath.Join(c.Output.Directory, "templates", filepath.Base(c.Assets.Template))
}
