package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithBuildID(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-123")

	lc := GetContext(ctx)
	if lc.BuildID != "build-123" {
		t.Errorf("expected build-123, got %s", lc.BuildID)
	}
}

func TestWithFormat(t *testing.T) {
	ctx := context.Background()
	ctx = WithFormat(ctx, "pdf")

	lc := GetContext(ctx)
	if lc.Format != "pdf" {
		t.Errorf("expected pdf, got %s", lc.Format)
	}
}

func TestWithTask(t *testing.T) {
	ctx := context.Background()
	ctx = WithTask(ctx, "sass")

	lc := GetContext(ctx)
	if lc.Task != "sass" {
		t.Errorf("expected sass, got %s", lc.Task)
	}
}

func TestMultipleContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithBuildID(ctx, "build-123")
	ctx = WithFormat(ctx, "epub")
	ctx = WithTask(ctx, "bundle")

	lc := GetContext(ctx)
	if lc.BuildID != "build-123" || lc.Format != "epub" || lc.Task != "bundle" {
		t.Errorf("context values lost: %+v", lc)
	}
}

func TestInfoContextEmitsAttrs(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(old)

	ctx := WithFormat(WithBuildID(context.Background(), "b-1"), "html")
	InfoContext(ctx, "line from tool", slog.String("stream", "stdout"))

	out := buf.String()
	for _, want := range []string{"build.id=b-1", "format=html", "stream=stdout", "line from tool"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
