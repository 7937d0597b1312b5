package config

// Format names supported by the build coordinator.
const (
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatHTML = "html"
	FormatEPUB = "epub"
)

// DefaultOrder is the fixed order used by composite (all-format) builds.
var DefaultOrder = []string{FormatJSON, FormatPDF, FormatHTML, FormatEPUB}

// defaultProfiles returns the built-in Format Profiles. They are applied for
// any format the configuration file leaves unset, so a minimal file with just
// title, sources, and metadata still builds every format.
func defaultProfiles() map[string]FormatProfile {
	return map[string]FormatProfile{
		FormatJSON: {
			Output: "book.json",
		},
		FormatPDF: {
			Output:   "book.pdf",
			Template: "src/templates/book.tex",
			Filters:  []string{"src/filters/callout.lua", "src/filters/columns.lua", "src/filters/vector-images.lua"},
		},
		FormatHTML: {
			Output: "index.html",
			// Template defaults to the inliner's output; see applyDefaults.
			Filters:       []string{"src/filters/callout.lua", "src/filters/raster-images.lua"},
			SelfContained: true,
		},
		FormatEPUB: {
			Output:        "book.epub",
			Template:      "src/templates/epub.html",
			Filters:       []string{"src/filters/callout.lua", "src/filters/raster-images.lua"},
			SelfContained: true,
		},
	}
}

// applyDefaults fills zero-valued settings; it never overrides explicit values.
func applyDefaults(cfg *Config) {
	if cfg.Pandoc == "" {
		cfg.Pandoc = "pandoc"
	}
	if cfg.Metadata == "" {
		cfg.Metadata = "src/meta/metadata.yaml"
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "dist"
	}
	if cfg.Assets.SassBin == "" {
		cfg.Assets.SassBin = "sass"
	}
	if cfg.Assets.Stylesheet == "" {
		cfg.Assets.Stylesheet = "assets/book.css"
	}
	if cfg.Assets.Bundle == "" {
		cfg.Assets.Bundle = "assets/book.js"
	}
	if cfg.Assets.Template == "" {
		cfg.Assets.Template = "src/templates/book.html"
	}
	if cfg.Formats == nil {
		cfg.Formats = map[string]FormatProfile{}
	}
	for name, def := range defaultProfiles() {
		p, ok := cfg.Formats[name]
		if !ok {
			cfg.Formats[name] = def
			continue
		}
		if p.Output == "" {
			p.Output = def.Output
		}
		if p.Template == "" {
			p.Template = def.Template
		}
		if p.Filters == nil {
			p.Filters = def.Filters
		}
		cfg.Formats[name] = p
	}
	// The web template is the inliner's self-contained artifact.
	if p, ok := cfg.Formats[FormatHTML]; ok && p.Template == "" {
		p.Template = cfg.InlinedTemplatePath()
		cfg.Formats[FormatHTML] = p
	}
	// Per-format metadata falls back to the book-wide metadata file.
	for name, p := range cfg.Formats {
		if p.Metadata == "" {
			p.Metadata = cfg.Metadata
			cfg.Formats[name] = p
		}
	}
	if len(cfg.Order) == 0 {
		cfg.Order = append([]string(nil), DefaultOrder...)
	}
	if cfg.Serve.Port == 0 {
		cfg.Serve.Port = 4000
	}
	if cfg.Serve.DebounceMS == 0 {
		cfg.Serve.DebounceMS = 300
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "bookforge.builds"
	}
}

// ScaffoldYAML is written by `bookforge init` as a starting configuration.
const ScaffoldYAML = `# bookforge configuration
title: My Book
metadata: src/meta/metadata.yaml

# Chapter order in the generated book follows this list.
sources:
  - src/pages/01-introduction.md

output:
  directory: dist

# Per-format profiles; omitted formats use built-in defaults.
formats:
  pdf:
    output: book.pdf
    template: src/templates/book.tex

assets:
  sass_entry: src/css/book.scss
  scripts:
    - src/js/book.js

serve:
  port: 4000
`
