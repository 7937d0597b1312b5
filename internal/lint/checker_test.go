package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChapter(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheckSourcesCleanChapter(t *testing.T) {
	dir := t.TempDir()
	writeChapter(t, dir, "cover.png", "png")
	ch := writeChapter(t, dir, "01-intro.md", `# Introduction

![cover](cover.png)

See [the website](https://example.com) and [below](#introduction).
`)

	res, err := NewChecker().CheckSources([]string{ch})
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 1, res.FilesTotal)
	assert.False(t, res.HasErrors())
}

func TestCheckSourcesMissingImageIsError(t *testing.T) {
	dir := t.TempDir()
	ch := writeChapter(t, dir, "01-intro.md", "# Intro\n\n![missing](img/nope.png)\n")

	res, err := NewChecker().CheckSources([]string{ch})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "missing-image-target", res.Issues[0].Rule)
	assert.Equal(t, SeverityError, res.Issues[0].Severity)
	assert.True(t, res.HasErrors())
	assert.Equal(t, 1, res.ErrorCount())
}

func TestCheckSourcesMissingLinkIsWarning(t *testing.T) {
	dir := t.TempDir()
	ch := writeChapter(t, dir, "01-intro.md", "# Intro\n\n[appendix](appendix.md)\n")

	res, err := NewChecker().CheckSources([]string{ch})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "missing-link-target", res.Issues[0].Rule)
	assert.Equal(t, SeverityWarning, res.Issues[0].Severity)
	assert.False(t, res.HasErrors())
}

func TestCheckSourcesDuplicateAnchorAcrossChapters(t *testing.T) {
	dir := t.TempDir()
	a := writeChapter(t, dir, "01-a.md", "# Summary\n")
	b := writeChapter(t, dir, "02-b.md", "# Summary\n")

	res, err := NewChecker().CheckSources([]string{a, b})
	require.NoError(t, err)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "duplicate-anchor", res.Issues[0].Rule)
	assert.Equal(t, b, res.Issues[0].FilePath)
}

func TestCheckSourcesUnreadableChapter(t *testing.T) {
	_, err := NewChecker().CheckSources([]string{filepath.Join(t.TempDir(), "absent.md")})
	require.Error(t, err)
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"Introduction", "introduction"},
		{"Creating a Schema", "creating-a-schema"},
		{"What's Next?", "whats-next"},
		{"Héllo  Wörld", "héllo--wörld"},
	}
	for _, test := range tests {
		if got := Anchor(test.heading); got != test.want {
			t.Errorf("Anchor(%q) = %q, want %q", test.heading, got, test.want)
		}
	}
}
