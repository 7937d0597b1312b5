package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bookforge/bookforge/internal/archive"
	"github.com/bookforge/bookforge/internal/version"
)

// PackageCmd implements the 'package' command.
type PackageCmd struct {
	Output string `short:"o" help:"Archive path (defaults to <output dir>/book-<commit>.zip)"`
}

func (p *PackageCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	archivePath := p.Output
	if archivePath == "" {
		archivePath = filepath.Join(cfg.Output.Directory, fmt.Sprintf("book-%s.zip", version.Commit(".")))
	}
	return archive.Package(context.Background(), cfg.Output.Directory, archivePath)
}
