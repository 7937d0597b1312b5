package pandoc

import (
	"github.com/bookforge/bookforge/internal/config"
)

// Invocation is a fully composed external-tool command line for one format.
// Composition is a pure function of the configuration; two calls with the
// same inputs produce identical argument lists.
type Invocation struct {
	Tool       string
	Args       []string
	OutputPath string
}

// writerFor maps a format name to the tool's writer; pdf is driven by the
// output extension and needs no explicit writer.
var writerFor = map[string]string{
	config.FormatJSON: "json",
	config.FormatHTML: "html5",
	config.FormatEPUB: "epub3",
}

// NewInvocation composes the command line for one Format Profile: global
// flags, profile-specific template/filters/metadata, and the ordered chapter
// sources last (their order determines chapter order in the output).
func NewInvocation(cfg *config.Config, format string, profile config.FormatProfile, commit string) Invocation {
	out := cfg.OutputPath(profile)

	args := []string{
		"--from", "markdown+smart",
		"--number-sections",
		"--table-of-contents",
		"--citeproc",
	}
	if w, ok := writerFor[format]; ok {
		args = append(args, "--to", w)
	}
	if profile.SelfContained {
		args = append(args, "--embed-resources", "--standalone")
	}
	if profile.Template != "" {
		args = append(args, "--template", profile.Template)
	}
	for _, filter := range profile.Filters {
		args = append(args, "--filter", filter)
	}
	if profile.Metadata != "" {
		args = append(args, "--metadata-file", profile.Metadata)
	}
	if commit != "" {
		args = append(args, "--metadata", "commit="+commit)
	}
	args = append(args, "--output", out)
	args = append(args, cfg.Sources...)

	return Invocation{Tool: cfg.Pandoc, Args: args, OutputPath: out}
}
