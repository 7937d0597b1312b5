package commands

import (
	"fmt"
	"os"

	"github.com/bookforge/bookforge/internal/config"
	berrors "github.com/bookforge/bookforge/internal/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if _, err := os.Stat(root.Config); err == nil && !i.Force {
		return berrors.New(berrors.CategoryValidation, berrors.SeverityFatal, "configuration file already exists (use --force to overwrite)").
			WithContext("path", root.Config)
	}

	if err := os.WriteFile(root.Config, []byte(config.ScaffoldYAML), 0o644); err != nil {
		return berrors.FileSystemError("write configuration file", err)
	}
	fmt.Printf("Created %s\n", root.Config)
	return nil
}
