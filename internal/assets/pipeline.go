// Package assets implements the auxiliary asset tasks feeding the web and
// e-reader builds: stylesheet compilation, stylesheet inlining, and script
// bundling.
package assets

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/bookforge/bookforge/internal/config"
	berrors "github.com/bookforge/bookforge/internal/errors"
	"github.com/bookforge/bookforge/internal/metrics"
	"github.com/bookforge/bookforge/internal/observability"
)

// Task names, used for logging, metrics, and watch-group sequences.
const (
	TaskStyles  = "styles"
	TaskInline  = "inline"
	TaskScripts = "scripts"
)

// Pipeline runs the asset tasks against one configuration.
type Pipeline struct {
	cfg      *config.Config
	recorder metrics.Recorder
}

// NewPipeline creates an asset pipeline for the given configuration.
func NewPipeline(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder (NoopRecorder by default).
func (p *Pipeline) WithRecorder(rec metrics.Recorder) *Pipeline {
	if rec != nil {
		p.recorder = rec
	}
	return p
}

// Run executes the full task sequence in dependency order: compile styles,
// inline into the web template, then bundle scripts. The first failure stops
// the sequence.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.CompileStyles(ctx); err != nil {
		return err
	}
	if err := p.InlineTemplate(ctx); err != nil {
		return err
	}
	return p.BundleScripts(ctx)
}

// CompileStyles runs the external sass compiler over the configured entry
// stylesheet. A missing entry is a no-op so books without styles still build.
func (p *Pipeline) CompileStyles(ctx context.Context) error {
	ctx = observability.WithTask(ctx, TaskStyles)
	entry := p.cfg.Assets.SassEntry
	if entry == "" {
		observability.DebugContext(ctx, "No sass entry configured; skipping style compilation")
		return nil
	}

	out := p.cfg.StylesheetPath()
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		p.recorder.IncAssetTask(TaskStyles, false)
		return berrors.FileSystemError("create assets directory", err)
	}

	err := p.runTool(ctx, TaskStyles, p.cfg.Assets.SassBin, "--no-source-map", entry, out)
	p.recorder.IncAssetTask(TaskStyles, err == nil)
	if err != nil {
		return err
	}
	observability.InfoContext(ctx, "Stylesheet compiled", slog.String("output", out))
	return nil
}

// runTool spawns one external process and forwards its output streams
// line-by-line, the same discipline the build coordinator uses.
func (p *Pipeline) runTool(ctx context.Context, task, tool string, args ...string) error {
	cmd := exec.CommandContext(ctx, tool, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return berrors.InvocationError(tool, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return berrors.InvocationError(tool, err)
	}
	if err := cmd.Start(); err != nil {
		return berrors.InvocationError(tool, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		forwardStream(ctx, stdout, "stdout")
	}()
	go func() {
		defer wg.Done()
		forwardStream(ctx, stderr, "stderr")
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return berrors.AssetTaskFailed(task, err).WithExitCode(exitErr.ExitCode())
		}
		return berrors.InvocationError(tool, err)
	}
	return nil
}

// forwardStream logs each line of one tool output stream. If a line exceeds
// the scanner limit the rest of the stream is drained unlogged: the pipe must
// keep flowing or the child blocks on a full buffer and never exits.
func forwardStream(ctx context.Context, r io.Reader, stream string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 10<<20)
	logLine := observability.InfoContext
	if stream == "stderr" {
		logLine = observability.ErrorContext
	}
	for scanner.Scan() {
		logLine(ctx, scanner.Text(), slog.String("stream", stream))
	}
	if err := scanner.Err(); err != nil {
		observability.WarnContext(ctx, "Tool output not line-forwardable; draining",
			slog.String("stream", stream), slog.Any("error", err))
		_, _ = io.Copy(io.Discard, r)
	}
}
