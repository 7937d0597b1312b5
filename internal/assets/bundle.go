package assets

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	berrors "github.com/bookforge/bookforge/internal/errors"
	"github.com/bookforge/bookforge/internal/observability"
)

// BundleScripts concatenates the configured scripts, in declared order, into
// a single bundle under the output directory. No scripts configured is a no-op.
func (p *Pipeline) BundleScripts(ctx context.Context) error {
	ctx = observability.WithTask(ctx, TaskScripts)
	if len(p.cfg.Assets.Scripts) == 0 {
		observability.DebugContext(ctx, "No scripts configured; skipping bundle")
		return nil
	}

	out := p.cfg.BundlePath()
	data, err := ConcatScripts(p.cfg.Assets.Scripts)
	if err != nil {
		p.recorder.IncAssetTask(TaskScripts, false)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		p.recorder.IncAssetTask(TaskScripts, false)
		return berrors.FileSystemError("create assets directory", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		p.recorder.IncAssetTask(TaskScripts, false)
		return berrors.FileSystemError("write script bundle", err)
	}

	p.recorder.IncAssetTask(TaskScripts, true)
	observability.InfoContext(ctx, "Scripts bundled",
		slog.String("output", out),
		slog.Int("inputs", len(p.cfg.Assets.Scripts)))
	return nil
}

// ConcatScripts joins script files with per-file banners. Each input is
// terminated with a semicolon guard so concatenation cannot merge statements
// across file boundaries.
func ConcatScripts(paths []string) ([]byte, error) {
	var buf bytes.Buffer
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, berrors.AssetTaskFailed(TaskScripts, err).WithContext("script", path)
		}
		fmt.Fprintf(&buf, "// %s\n", filepath.ToSlash(path))
		buf.Write(bytes.TrimRight(data, "\n"))
		buf.WriteString("\n;\n")
	}
	return buf.Bytes(), nil
}
