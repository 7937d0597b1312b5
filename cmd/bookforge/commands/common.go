package commands

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/bookforge/bookforge/internal/assets"
	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/metrics"
	"github.com/bookforge/bookforge/internal/notify"
	"github.com/bookforge/bookforge/internal/pandoc"
	"github.com/bookforge/bookforge/internal/version"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"bookforge.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build one output format (json, pdf, html, epub)"`
	All     AllCmd     `cmd:"" help:"Build every format in the configured order, stopping at the first failure"`
	Package PackageCmd `cmd:"" help:"Bundle all generated artifacts into a single archive"`
	Serve   ServeCmd   `cmd:"" help:"Build once, serve the output directory, and rebuild on changes"`
	Check   CheckCmd   `cmd:"" help:"Check chapter sources for missing link and image targets"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once. The --verbose flag
// wins over the BOOKFORGE_LOG_LEVEL environment override.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := parseLogLevel(os.Getenv("BOOKFORGE_LOG_LEVEL"))
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel maps a BOOKFORGE_LOG_LEVEL value to a slog level. Empty and
// unknown values keep the info default.
func parseLogLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadConfig loads the configuration named by the root --config flag.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}

// newRunner wires a build coordinator with version stamp, metrics, and the
// optional build-event publisher.
func newRunner(cfg *config.Config, rec metrics.Recorder) (*pandoc.Runner, func(), error) {
	commit := version.Commit(".")
	runner := pandoc.NewRunner(cfg, commit).WithRecorder(rec)

	publisher, err := notify.NewPublisher(cfg.Notify, commit)
	if err != nil {
		// A broken notification endpoint must not block local builds.
		slog.Warn("Build notifications disabled", "error", err)
		return runner, func() {}, nil
	}
	if publisher != nil {
		runner = runner.WithPublisher(publisher)
	}
	return runner, publisher.Close, nil
}

// needsAssets reports whether a format consumes the asset pipeline's output.
func needsAssets(format string) bool {
	return format == config.FormatHTML || format == config.FormatEPUB
}

// prepareAssets runs the asset task sequence required by web/e-reader builds.
func prepareAssets(ctx context.Context, cfg *config.Config, rec metrics.Recorder) error {
	return assets.NewPipeline(cfg).WithRecorder(rec).Run(ctx)
}
