package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/bookforge/bookforge/internal/assets"
	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/metrics"
	"github.com/bookforge/bookforge/internal/pandoc"
	"github.com/bookforge/bookforge/internal/server"
	"github.com/bookforge/bookforge/internal/watch"
)

// ServeCmd implements the 'serve' command: one full build, a static preview
// server over the output directory, and the file-watch re-trigger loop.
type ServeCmd struct {
	Port int `short:"p" help:"Override the preview server port"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Port > 0 {
		cfg.Serve.Port = s.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(registry)

	runner, closeNotify, err := newRunner(cfg, rec)
	if err != nil {
		return err
	}
	defer closeNotify()
	pipeline := assets.NewPipeline(cfg).WithRecorder(rec)

	// Initial build; a failure is reported but does not abort the preview
	// session, so authors can fix sources interactively.
	if err := buildEverything(ctx, cfg, pipeline, runner); err != nil {
		slog.Error("Initial build failed", "error", err)
	}

	hub := server.NewLiveReloadHub(rec)
	httpServer := server.NewHTTPServer(cfg, hub, registry)
	if err := httpServer.Start(ctx); err != nil {
		return err
	}

	scheduler, err := startRebuildSchedule(ctx, cfg, pipeline, runner, hub)
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	watcher := watch.New(time.Duration(cfg.Serve.DebounceMS) * time.Millisecond).WithRecorder(rec)
	watchErr := watcher.Watch(ctx, watchSequences(cfg, pipeline, runner, hub))

	slog.Info("Shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		slog.Warn("Preview server shutdown error", "error", err)
	}
	return watchErr
}

// buildEverything runs the asset pipeline and the full composite build.
func buildEverything(ctx context.Context, cfg *config.Config, pipeline *assets.Pipeline, runner *pandoc.Runner) error {
	for _, format := range cfg.Order {
		if needsAssets(format) {
			if err := pipeline.Run(ctx); err != nil {
				return err
			}
			break
		}
	}
	_, err := runner.BuildAll(ctx)
	return err
}

// rebuildWeb rebuilds the web format and notifies preview clients. Failures
// broadcast an error tick so open pages can show a build problem.
func rebuildWeb(ctx context.Context, runner *pandoc.Runner, hub *server.LiveReloadHub) error {
	if _, err := runner.Build(ctx, config.FormatHTML); err != nil {
		hub.Broadcast(fmt.Sprintf("error:%d", time.Now().UnixNano()))
		return err
	}
	hub.Broadcast(fmt.Sprint(time.Now().UnixNano()))
	return nil
}

// watchSequences declares the fixed watch groups and their task sequences.
// Paths under the output directory are never watched: rebuilds write there,
// and watching it would re-trigger the loop forever.
func watchSequences(cfg *config.Config, pipeline *assets.Pipeline, runner *pandoc.Runner, hub *server.LiveReloadHub) []watch.Sequence {
	var sequences []watch.Sequence
	outside := func(paths []string) []string {
		var kept []string
		for _, p := range paths {
			if p == "" {
				continue
			}
			if rel, err := filepath.Rel(cfg.Output.Directory, p); err == nil && !strings.HasPrefix(rel, "..") {
				continue
			}
			kept = append(kept, p)
		}
		return kept
	}

	if cfg.Assets.SassEntry != "" {
		sequences = append(sequences, watch.Sequence{
			Group: "styles",
			Paths: outside([]string{filepath.Dir(cfg.Assets.SassEntry)}),
			Run: func(ctx context.Context) error {
				if err := pipeline.CompileStyles(ctx); err != nil {
					return err
				}
				if err := pipeline.InlineTemplate(ctx); err != nil {
					return err
				}
				return rebuildWeb(ctx, runner, hub)
			},
		})
	}

	if len(cfg.Assets.Scripts) > 0 {
		sequences = append(sequences, watch.Sequence{
			Group: "scripts",
			Paths: outside(cfg.Assets.Scripts),
			Run: func(ctx context.Context) error {
				if err := pipeline.BundleScripts(ctx); err != nil {
					return err
				}
				if err := pipeline.InlineTemplate(ctx); err != nil {
					return err
				}
				return rebuildWeb(ctx, runner, hub)
			},
		})
	}

	sequences = append(sequences, watch.Sequence{
		Group: "pages",
		Paths: outside(cfg.Sources),
		Run: func(ctx context.Context) error {
			return rebuildWeb(ctx, runner, hub)
		},
	})

	var templates []string
	if cfg.Assets.Template != "" {
		templates = append(templates, cfg.Assets.Template)
	}
	for _, p := range cfg.Formats {
		if p.Template != "" {
			templates = append(templates, p.Template)
		}
	}
	if kept := outside(templates); len(kept) > 0 {
		sequences = append(sequences, watch.Sequence{
			Group: "templates",
			Paths: kept,
			Run: func(ctx context.Context) error {
				if err := pipeline.InlineTemplate(ctx); err != nil {
					return err
				}
				return rebuildWeb(ctx, runner, hub)
			},
		})
	}

	var meta []string
	if cfg.Metadata != "" {
		meta = append(meta, cfg.Metadata)
	}
	for _, p := range cfg.Formats {
		if p.Metadata != "" {
			meta = append(meta, p.Metadata)
		}
	}
	if kept := outside(meta); len(kept) > 0 {
		sequences = append(sequences, watch.Sequence{
			Group: "metadata",
			Paths: kept,
			Run: func(ctx context.Context) error {
				return rebuildWeb(ctx, runner, hub)
			},
		})
	}

	return sequences
}

// startRebuildSchedule installs the optional cron-driven full rebuild for
// long-lived preview sessions. Returns nil when no schedule is configured.
func startRebuildSchedule(ctx context.Context, cfg *config.Config, pipeline *assets.Pipeline, runner *pandoc.Runner, hub *server.LiveReloadHub) (gocron.Scheduler, error) {
	if cfg.Serve.RebuildSchedule == "" {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = scheduler.NewJob(
		gocron.CronJob(cfg.Serve.RebuildSchedule, false),
		gocron.NewTask(func() {
			slog.Info("Scheduled full rebuild")
			if err := buildEverything(ctx, cfg, pipeline, runner); err != nil {
				slog.Error("Scheduled rebuild failed", "error", err)
				return
			}
			hub.Broadcast(fmt.Sprint(time.Now().UnixNano()))
		}),
		gocron.WithName("full-rebuild"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	scheduler.Start()
	slog.Info("Scheduled rebuild enabled", "cron", cfg.Serve.RebuildSchedule)
	return scheduler, nil
}
