package commands

import (
	"context"
	"log/slog"

	"github.com/bookforge/bookforge/internal/metrics"
)

// AllCmd implements the 'all' command: a fail-fast composite build of every
// configured format.
type AllCmd struct {
	Check bool `help:"Check chapter sources before building"`
}

func (a *AllCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rec := metrics.NoopRecorder{}

	if a.Check {
		if err := runCheck(cfg); err != nil {
			return err
		}
	}

	// Asset tasks run once, up front, when any format in the order needs them.
	for _, format := range cfg.Order {
		if needsAssets(format) {
			if err := prepareAssets(ctx, cfg, rec); err != nil {
				return err
			}
			break
		}
	}

	runner, closeNotify, err := newRunner(cfg, rec)
	if err != nil {
		return err
	}
	defer closeNotify()

	results, err := runner.BuildAll(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		slog.Info("Built", "format", res.Format, "output", res.Output, "duration", res.Duration)
	}
	return nil
}
