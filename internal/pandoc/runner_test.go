package pandoc

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/errors"
)

// writeStubTool writes an executable shell script standing in for the
// conversion tool and returns its path.
func writeStubTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub tool tests require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "pandoc-stub")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func runnerConfig(t *testing.T, tool string) *config.Config {
	t.Helper()
	cfg := testConfig()
	cfg.Pandoc = tool
	cfg.Output.Directory = filepath.Join(t.TempDir(), "dist")
	return cfg
}

func TestBuildSucceedsOnExitZero(t *testing.T) {
	tool := writeStubTool(t, "echo converting; exit 0\n")
	cfg := runnerConfig(t, tool)

	res, err := NewRunner(cfg, "abc1234").Build(context.Background(), config.FormatHTML)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StateSucceeded, res.State)
	assert.True(t, res.State.Terminal())
	assert.Equal(t, 0, res.ExitCode)
	assert.NotEmpty(t, res.BuildID)
}

func TestBuildFailsWithToolExitCode(t *testing.T) {
	tool := writeStubTool(t, "echo boom 1>&2; exit 43\n")
	cfg := runnerConfig(t, tool)

	res, err := NewRunner(cfg, "").Build(context.Background(), config.FormatPDF)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 43, res.ExitCode)
	assert.True(t, errors.IsCategory(err, errors.CategoryConversion))

	be, ok := err.(*errors.BuildError)
	require.True(t, ok)
	assert.Equal(t, 43, be.ExitCode)
}

func TestBuildUnknownFormatSpawnsNothing(t *testing.T) {
	// A tool that would leave a marker file if it ever ran.
	marker := filepath.Join(t.TempDir(), "ran")
	tool := writeStubTool(t, "touch "+marker+"\n")
	cfg := runnerConfig(t, tool)

	res, err := NewRunner(cfg, "").Build(context.Background(), "docx")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr), "no process may be spawned for an unknown format")
}

func TestBuildMissingToolIsInvocationError(t *testing.T) {
	cfg := runnerConfig(t, filepath.Join(t.TempDir(), "no-such-tool"))

	res, err := NewRunner(cfg, "").Build(context.Background(), config.FormatJSON)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, StateFailed, res.State)
	assert.True(t, errors.IsCategory(err, errors.CategoryInvocation))
}

func TestBuildAllFailFast(t *testing.T) {
	// Fails only for the pdf artifact; records every invocation output path.
	log := filepath.Join(t.TempDir(), "calls.log")
	tool := writeStubTool(t, `for a in "$@"; do
  case "$prev" in --output) echo "$a" >> `+log+`;; esac
  prev="$a"
done
case "$*" in *book.pdf*) exit 9;; esac
exit 0
`)
	cfg := runnerConfig(t, tool)
	cfg.Order = []string{config.FormatJSON, config.FormatPDF, config.FormatHTML}

	results, err := NewRunner(cfg, "").BuildAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConversion))

	// json succeeded, pdf failed, html was never attempted.
	require.Len(t, results, 2)
	assert.Equal(t, config.FormatJSON, results[0].Format)
	assert.Equal(t, StateSucceeded, results[0].State)
	assert.Equal(t, config.FormatPDF, results[1].Format)
	assert.Equal(t, StateFailed, results[1].State)
	assert.Equal(t, 9, results[1].ExitCode)

	data, readErr := os.ReadFile(log)
	require.NoError(t, readErr)
	assert.NotContains(t, string(data), "index.html", "third format must never be spawned")
}

// buildWithTimeout fails the test instead of hanging it when Build never
// resolves.
func buildWithTimeout(t *testing.T, cfg *config.Config, format string) (*Result, error) {
	t.Helper()
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := NewRunner(cfg, "").Build(context.Background(), format)
		done <- outcome{res, err}
	}()
	select {
	case o := <-done:
		return o.res, o.err
	case <-time.After(30 * time.Second):
		t.Fatal("build did not resolve after the tool exited")
		return nil, nil
	}
}

func TestBuildSurvivesLongOutputLine(t *testing.T) {
	// One megabyte of output on a single line, then a clean exit.
	tool := writeStubTool(t, "head -c 1048576 /dev/zero | tr '\\0' 'x'; echo; exit 0\n")
	cfg := runnerConfig(t, tool)

	res, err := buildWithTimeout(t, cfg, config.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
}

func TestBuildDrainsOversizedOutputLine(t *testing.T) {
	// A single line beyond any forwarding limit; the stream must still be
	// drained so the tool's exit status is observed.
	tool := writeStubTool(t, "head -c 11534336 /dev/zero | tr '\\0' 'x'; echo; exit 7\n")
	cfg := runnerConfig(t, tool)

	res, err := buildWithTimeout(t, cfg, config.FormatJSON)
	require.Error(t, err)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 7, res.ExitCode)
}

type captivePublisher struct {
	results []*Result
}

func (c *captivePublisher) Publish(_ context.Context, res *Result) {
	c.results = append(c.results, res)
}

func TestBuildPublishesTerminalOutcomeOnce(t *testing.T) {
	tool := writeStubTool(t, "exit 0\n")
	cfg := runnerConfig(t, tool)

	pub := &captivePublisher{}
	_, err := NewRunner(cfg, "").WithPublisher(pub).Build(context.Background(), config.FormatJSON)
	require.NoError(t, err)

	require.Len(t, pub.results, 1)
	assert.Equal(t, StateSucceeded, pub.results[0].State)
}
