package commands

import (
	"context"
	"log/slog"

	"github.com/bookforge/bookforge/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Format string `arg:"" help:"Output format to build (json, pdf, html, epub)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rec := metrics.NoopRecorder{}

	// Reject unknown formats before any asset task or process runs.
	if _, err := cfg.ProfileFor(b.Format); err != nil {
		return err
	}

	if needsAssets(b.Format) {
		if err := prepareAssets(ctx, cfg, rec); err != nil {
			return err
		}
	}

	runner, closeNotify, err := newRunner(cfg, rec)
	if err != nil {
		return err
	}
	defer closeNotify()

	res, err := runner.Build(ctx, b.Format)
	if err != nil {
		return err
	}
	slog.Info("Build complete", "format", res.Format, "output", res.Output)
	return nil
}
