package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for
// the bookforge command line.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if be, ok := err.(*BuildError); ok {
		return a.exitCodeFromBuildError(be)
	}

	return 1
}

// exitCodeFromBuildError maps BuildError to exit codes. Conversion failures
// carry the external tool's own exit status through unchanged.
func (a *CLIErrorAdapter) exitCodeFromBuildError(err *BuildError) int {
	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return 2 // usage or configuration error
	case CategoryInvocation:
		return 3 // tool could not be started
	case CategoryConversion:
		if err.ExitCode > 0 {
			return err.ExitCode
		}
		return 1
	case CategoryAssets, CategoryFileSystem:
		return 4 // asset pipeline error
	case CategoryServer:
		return 5 // preview server error
	default:
		return 1 // general/internal error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if be, ok := err.(*BuildError); ok {
		if a.verbose {
			return be.Error()
		}
		switch be.Category {
		case CategoryConfig, CategoryValidation:
			return be.Message
		default:
			return fmt.Sprintf("%s: %s", be.Category, be.Message)
		}
	}

	return fmt.Sprintf("Error: %v", err)
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged in addition to the
// user-facing message.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if be, ok := err.(*BuildError); ok {
		return be.Category == CategoryInternal || be.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if be, ok := err.(*BuildError); ok {
		attrs := []slog.Attr{
			slog.String("category", string(be.Category)),
		}
		if be.ExitCode > 0 {
			attrs = append(attrs, slog.Int("exit_code", be.ExitCode))
		}
		a.logger.LogAttrs(context.Background(), a.slogLevelFromSeverity(be.Severity), be.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts BuildError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
