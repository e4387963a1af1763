// Package must provides helpers for operations whose failures can't be
// meaningfully handled (typically cleanup on an error path) but should still be
// reported.
package must

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rolldiff/rolldiff/pkg/logging"
)

// Close closes the closer, logging a warning on failure.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("Unable to close: %s", err.Error())
	}
}

// OSRemove removes the named file, logging a warning on failure.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("Unable to remove '%s': %s", name, err.Error())
	}
}

// Finalize finalizes the target, logging a warning on failure.
func Finalize(s interface{ Finalize() error }, logger *logging.Logger) {
	if err := s.Finalize(); err != nil {
		logger.Warnf("Unable to finalize: %s", err.Error())
	}
}

// CommandHelp prints help for a command, logging a warning on failure.
func CommandHelp(c *cobra.Command, logger *logging.Logger) {
	if err := c.Help(); err != nil {
		logger.Warnf("Unable to help: %s", err.Error())
	}
}
