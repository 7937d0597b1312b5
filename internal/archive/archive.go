// Package archive bundles every generated artifact into a single zip for
// publishing.
package archive

import (
	"archive/zip"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	berrors "github.com/bookforge/bookforge/internal/errors"
	"github.com/bookforge/bookforge/internal/observability"
)

// Package zips the contents of outputDir into archivePath. The archive
// itself and anything under its own path are excluded so repeated packaging
// runs do not nest earlier archives. Packaging an empty output directory is
// an error: there is nothing to publish.
func Package(ctx context.Context, outputDir, archivePath string) error {
	entries := collect(outputDir, archivePath)
	if len(entries) == 0 {
		return berrors.New(berrors.CategoryValidation, berrors.SeverityFatal, "nothing to package").
			WithContext("output_dir", outputDir)
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return berrors.FileSystemError("create archive directory", err)
	}
	f, err := os.Create(archivePath)
	if err != nil {
		return berrors.FileSystemError("create archive", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		if err := addFile(zw, outputDir, entry); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return berrors.FileSystemError("finalize archive", err)
	}

	observability.InfoContext(ctx, "Artifacts packaged",
		slog.String("archive", archivePath),
		slog.Int("files", len(entries)))
	return nil
}

// collect lists regular files under dir, excluding the archive path itself.
func collect(dir, archivePath string) []string {
	var files []string
	absArchive, _ := filepath.Abs(archivePath)
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absArchive {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files
}

func addFile(zw *zip.Writer, root, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	w, err := zw.Create(strings.ReplaceAll(rel, string(filepath.Separator), "/"))
	if err != nil {
		return berrors.FileSystemError("add archive entry", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return berrors.FileSystemError("read artifact", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return berrors.FileSystemError("write archive entry", err)
	}
	return nil
}
