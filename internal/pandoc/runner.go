// Package pandoc implements the document build coordinator: it turns a
// format request into a single external conversion invocation, forwards the
// tool's output streams to the log, and reports the terminal outcome.
package pandoc

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookforge/bookforge/internal/config"
	berrors "github.com/bookforge/bookforge/internal/errors"
	"github.com/bookforge/bookforge/internal/metrics"
	"github.com/bookforge/bookforge/internal/observability"
)

// Publisher receives terminal build outcomes. Implementations must not fail
// the build; publish errors are theirs to log.
type Publisher interface {
	Publish(ctx context.Context, res *Result)
}

// Runner coordinates external conversion runs. All builds are serialized
// through an internal mutex: the output directory is shared across formats
// and has no other locking discipline.
type Runner struct {
	cfg       *config.Config
	commit    string
	recorder  metrics.Recorder
	publisher Publisher

	mu sync.Mutex
}

// NewRunner creates a build coordinator for the given configuration.
// The commit string is stamped into every output as document metadata.
func NewRunner(cfg *config.Config, commit string) *Runner {
	return &Runner{cfg: cfg, commit: commit, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder (NoopRecorder by default).
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec != nil {
		r.recorder = rec
	}
	return r
}

// WithPublisher injects a build-outcome publisher (disabled by default).
func (r *Runner) WithPublisher(p Publisher) *Runner {
	r.publisher = p
	return r
}

// Build runs one conversion for the named format. Unknown format names fail
// before any process is spawned. The returned Result is always terminal.
func (r *Runner) Build(ctx context.Context, format string) (*Result, error) {
	profile, err := r.cfg.ProfileFor(format)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := &Result{
		BuildID: uuid.NewString()[:8],
		Format:  format,
		State:   StateNotStarted,
	}
	ctx = observability.WithBuildID(ctx, res.BuildID)
	ctx = observability.WithFormat(ctx, format)

	inv := NewInvocation(r.cfg, format, profile, r.commit)
	res.Output = inv.OutputPath

	if err := os.MkdirAll(filepath.Dir(inv.OutputPath), 0o755); err != nil {
		res.State = StateFailed
		res.Err = err
		return res, berrors.FileSystemError("create output directory", err)
	}

	observability.InfoContext(ctx, "Starting conversion",
		slog.String("tool", inv.Tool),
		slog.String("output", inv.OutputPath),
		slog.Int("sources", len(r.cfg.Sources)))

	start := time.Now()
	err = r.run(ctx, inv, res)
	res.Duration = time.Since(start)

	r.observe(ctx, res)
	return res, err
}

// run spawns the conversion process and waits for it, forwarding both output
// streams line-by-line while it runs.
func (r *Runner) run(ctx context.Context, inv Invocation, res *Result) error {
	cmd := exec.CommandContext(ctx, inv.Tool, inv.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		res.State = StateFailed
		res.Err = err
		return berrors.InvocationError(inv.Tool, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		res.State = StateFailed
		res.Err = err
		return berrors.InvocationError(inv.Tool, err)
	}

	if err := cmd.Start(); err != nil {
		res.State = StateFailed
		res.Err = err
		return berrors.InvocationError(inv.Tool, err)
	}
	res.State = StateRunning

	// Lines from each stream are forwarded in arrival order; no ordering is
	// guaranteed between the two streams.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		forwardStream(ctx, stdout, slog.LevelInfo)
	}()
	go func() {
		defer wg.Done()
		forwardStream(ctx, stderr, slog.LevelError)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		res.State = StateFailed
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return berrors.ConversionFailed(res.Format, res.ExitCode)
		}
		res.Err = err
		return berrors.InvocationError(inv.Tool, err)
	}

	res.State = StateSucceeded
	return nil
}

// maxToolLine caps a single forwarded output line. Conversion tools can dump
// entire documents onto one line when reporting errors.
const maxToolLine = 10 << 20

// forwardStream logs each line of one tool output stream. If a line exceeds
// the scanner limit the rest of the stream is drained unlogged: the pipe must
// keep flowing or the child blocks on a full buffer and never exits.
func forwardStream(ctx context.Context, r io.Reader, level slog.Level) {
	stream := "stdout"
	logLine := observability.InfoContext
	if level == slog.LevelError {
		stream = "stderr"
		logLine = observability.ErrorContext
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxToolLine)
	for scanner.Scan() {
		logLine(ctx, scanner.Text(), slog.String("stream", stream))
	}
	if err := scanner.Err(); err != nil {
		observability.WarnContext(ctx, "Tool output not line-forwardable; draining",
			slog.String("stream", stream), slog.Any("error", err))
		_, _ = io.Copy(io.Discard, r)
	}
}

// observe reports the terminal result to the log, metrics, and publisher.
func (r *Runner) observe(ctx context.Context, res *Result) {
	r.recorder.ObserveBuildDuration(res.Format, res.Duration)
	switch res.State {
	case StateSucceeded:
		r.recorder.IncBuildOutcome(res.Format, metrics.OutcomeSuccess)
		observability.InfoContext(ctx, "Conversion succeeded",
			slog.String("output", res.Output),
			slog.Duration("duration", res.Duration))
	default:
		r.recorder.IncBuildOutcome(res.Format, metrics.OutcomeFailed)
		observability.ErrorContext(ctx, "Conversion failed",
			slog.Int("exit_code", res.ExitCode),
			slog.Duration("duration", res.Duration))
	}
	if r.publisher != nil {
		r.publisher.Publish(ctx, res)
	}
}

// BuildAll runs every format in the configured order and stops at the first
// failure. Completed results, including the failed one, are returned.
func (r *Runner) BuildAll(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, len(r.cfg.Order))
	for _, format := range r.cfg.Order {
		res, err := r.Build(ctx, format)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
