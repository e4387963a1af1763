package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/rolldiff/rolldiff/pkg/rsync"
)

const (
	// ExitCodeGeneric is the exit code for I/O failures and usage errors.
	ExitCodeGeneric = 1
	// ExitCodeFormat is the exit code for malformed artifacts.
	ExitCodeFormat = 2
	// ExitCodeCorruption is the exit code for deltas that don't fit their base.
	ExitCodeCorruption = 3
)

// ExitCode determines the process exit code for an error.
func ExitCode(err error) int {
	var formatErr *rsync.FormatError
	var corruptionErr *rsync.CorruptionError
	if errors.As(err, &formatErr) {
		return ExitCodeFormat
	} else if errors.As(err, &corruptionErr) {
		return ExitCodeCorruption
	}
	return ExitCodeGeneric
}

// Warning prints a warning message to standard error.
func Warning(message string) {
	color.New(color.FgYellow).Fprintln(os.Stderr, "Warning:", message)
}

// Error prints an error message to standard error.
func Error(err error) {
	color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
}

// Fatal prints an error message to standard error and then terminates the
// process with an exit code determined by the error's type.
func Fatal(err error) {
	Error(err)
	os.Exit(ExitCode(err))
}

