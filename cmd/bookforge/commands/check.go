package commands

import (
	"fmt"
	"os"

	"github.com/bookforge/bookforge/internal/config"
	berrors "github.com/bookforge/bookforge/internal/errors"
	"github.com/bookforge/bookforge/internal/lint"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct{}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return runCheck(cfg)
}

// runCheck verifies every chapter source and reports issues on stderr.
// Error-level issues fail the command; warnings do not.
func runCheck(cfg *config.Config) error {
	result, err := lint.NewChecker().CheckSources(cfg.Sources)
	if err != nil {
		return err
	}

	for _, issue := range result.Issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s (%s)\n", issue.Severity, issue.FilePath, issue.Message, issue.Rule)
	}
	fmt.Fprintf(os.Stderr, "Checked %d chapters, %d issues\n", result.FilesTotal, len(result.Issues))

	if result.HasErrors() {
		return berrors.New(berrors.CategoryValidation, berrors.SeverityFatal, "source check failed").
			WithContext("errors", result.ErrorCount())
	}
	return nil
}
