package archive

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/bookforge/internal/errors"
)

func TestPackageCollectsArtifacts(t *testing.T) {
	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "book.pdf"), []byte("pdf"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("html"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dist, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dist, "assets", "book.css"), []byte("css"), 0o644))

	archivePath := filepath.Join(dist, "book-abc1234.zip")
	require.NoError(t, Package(context.Background(), dist, archivePath))

	r, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"assets/book.css", "book.pdf", "index.html"}, names)
}

func TestPackageExcludesItselfOnRepeat(t *testing.T) {
	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "book.epub"), []byte("epub"), 0o644))

	archivePath := filepath.Join(dist, "book.zip")
	require.NoError(t, Package(context.Background(), dist, archivePath))
	require.NoError(t, Package(context.Background(), dist, archivePath))

	r, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 1)
	assert.Equal(t, "book.epub", r.File[0].Name)
}

func TestPackageEmptyOutputDir(t *testing.T) {
	dist := t.TempDir()
	err := Package(context.Background(), dist, filepath.Join(dist, "book.zip"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}
