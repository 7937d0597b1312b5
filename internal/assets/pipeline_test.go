package assets

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

func assetConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Sources: []string{"src/pages/01-intro.md"},
	}
	config.Normalize(cfg)
	cfg.Output.Directory = filepath.Join(t.TempDir(), "dist")
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBundleScriptsPreservesOrder(t *testing.T) {
	cfg := assetConfig(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	b := filepath.Join(dir, "b.js")
	writeFile(t, a, "var a = 1;\n")
	writeFile(t, b, "var b = 2;\n")
	cfg.Assets.Scripts = []string{b, a} // declared order, not lexical

	require.NoError(t, NewPipeline(cfg).BundleScripts(context.Background()))

	data, err := os.ReadFile(cfg.BundlePath())
	require.NoError(t, err)
	out := string(data)
	assert.Less(t, indexOf(out, "var b"), indexOf(out, "var a"), "bundle must follow declared order")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestBundleScriptsMissingInput(t *testing.T) {
	cfg := assetConfig(t)
	cfg.Assets.Scripts = []string{filepath.Join(t.TempDir(), "absent.js")}

	err := NewPipeline(cfg).BundleScripts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAssets))
}

func TestBundleScriptsNoopWithoutScripts(t *testing.T) {
	cfg := assetConfig(t)
	cfg.Assets.Scripts = nil
	require.NoError(t, NewPipeline(cfg).BundleScripts(context.Background()))
}

func TestCompileStylesRunsConfiguredCompiler(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tool tests require a POSIX shell")
	}
	cfg := assetConfig(t)
	entry := filepath.Join(t.TempDir(), "book.scss")
	writeFile(t, entry, "body { color: red; }\n")
	cfg.Assets.SassEntry = entry

	// Stub compiler copies its input to its output.
	stub := filepath.Join(t.TempDir(), "sass-stub")
	writeFile(t, stub, "#!/bin/sh\ncp \"$2\" \"$3\"\n")
	require.NoError(t, os.Chmod(stub, 0o755))
	cfg.Assets.SassBin = stub

	require.NoError(t, NewPipeline(cfg).CompileStyles(context.Background()))

	data, err := os.ReadFile(cfg.StylesheetPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "color: red")
}

func TestCompileStylesFailureCarriesCategory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tool tests require a POSIX shell")
	}
	cfg := assetConfig(t)
	entry := filepath.Join(t.TempDir(), "book.scss")
	writeFile(t, entry, "body {}\n")
	cfg.Assets.SassEntry = entry

	stub := filepath.Join(t.TempDir(), "sass-stub")
	writeFile(t, stub, "#!/bin/sh\necho 'parse error' 1>&2\nexit 65\n")
	require.NoError(t, os.Chmod(stub, 0o755))
	cfg.Assets.SassBin = stub

	err := NewPipeline(cfg).CompileStyles(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryAssets))
}

func TestCompileStylesSurvivesLongOutputLine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub tool tests require a POSIX shell")
	}
	cfg := assetConfig(t)
	entry := filepath.Join(t.TempDir(), "book.scss")
	writeFile(t, entry, "body {}\n")
	cfg.Assets.SassEntry = entry

	// A compiler that floods stderr with one megabyte on a single line must
	// still be seen exiting.
	stub := filepath.Join(t.TempDir(), "sass-stub")
	writeFile(t, stub, "#!/bin/sh\nhead -c 1048576 /dev/zero | tr '\\0' 'x' 1>&2\necho 1>&2\ncp \"$2\" \"$3\"\n")
	require.NoError(t, os.Chmod(stub, 0o755))
	cfg.Assets.SassBin = stub

	done := make(chan error, 1)
	go func() {
		done <- NewPipeline(cfg).CompileStyles(context.Background())
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("style compilation did not resolve after the tool exited")
	}
}

func TestInlineTemplateEndToEnd(t *testing.T) {
	cfg := assetConfig(t)
	dir := t.TempDir()

	tmpl := filepath.Join(dir, "book.html")
	writeFile(t, tmpl, `<html><head><link rel="stylesheet" href="theme.css"><link rel="stylesheet" href="book.css"></head><body>$body$</body></html>`)
	writeFile(t, filepath.Join(dir, "theme.css"), "h1 { font-weight: bold; }")
	// The compiled stylesheet's basename resolves to the sass output.
	writeFile(t, cfg.StylesheetPath(), "p { margin: 0; }")
	cfg.Assets.Template = tmpl

	require.NoError(t, NewPipeline(cfg).InlineTemplate(context.Background()))

	data, err := os.ReadFile(cfg.InlinedTemplatePath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "font-weight: bold")
	assert.Contains(t, string(data), "margin: 0")
	assert.NotContains(t, string(data), `href="theme.css"`)
	assert.NotContains(t, string(data), `href="book.css"`)
}
