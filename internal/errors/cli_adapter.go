package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI commands.
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

	if de, ok := err.(*DaemonError); ok {
		return a.exitCodeFromDaemonError(de)
	}

	return 1
}

// exitCodeFromDaemonError maps DaemonError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromDaemonError(err *DaemonError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryNetwork, CategoryProbe, CategoryNotify:
		return 8 // External system error
	case CategoryNotFound:
		return 9 // Missing target
	case CategoryInternal:
		return 10 // Internal error
	case CategoryDaemon, CategoryCapacity:
		return 12 // Runtime error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if de, ok := err.(*DaemonError); ok {
		return a.formatDaemonError(de)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatDaemonError formats a DaemonError for display.
func (a *CLIErrorAdapter) formatDaemonError(err *DaemonError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
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

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if de, ok := err.(*DaemonError); ok {
		return de.Category == CategoryInternal ||
			de.Category == CategoryDaemon ||
			de.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if de, ok := err.(*DaemonError); ok {
		level := slogLevelFromSeverity(de.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(de.Category)),
		}
		if de.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(nil, level, de.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts DaemonError severity to slog level.
func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal, SeverityError:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
