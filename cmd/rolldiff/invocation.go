package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/configuration"
	"github.com/rolldiff/rolldiff/pkg/filesystem"
	"github.com/rolldiff/rolldiff/pkg/logging"
	"github.com/rolldiff/rolldiff/pkg/must"
	"github.com/rolldiff/rolldiff/pkg/profile"
	"github.com/rolldiff/rolldiff/pkg/rsync"
	"github.com/rolldiff/rolldiff/pkg/stream"
)

// invocation holds the state shared by a single command execution.
type invocation struct {
	// configuration is the effective configuration.
	configuration *configuration.Configuration
	// logger is the root logger.
	logger *logging.Logger
	// profile is the active profile, if any.
	profile *profile.Profile
}

// begin loads configuration, applies global overrides, creates the logger, and
// starts profiling if requested. The invocation must be ended with end.
func begin() (*invocation, error) {
	// Load configuration.
	c, err := configuration.Load(rootConfiguration.configurationPath)
	if err != nil {
		return nil, err
	}

	// Apply any log level override.
	if rootConfiguration.logLevel != "" {
		level, ok := logging.NameToLevel(rootConfiguration.logLevel)
		if !ok {
			return nil, errors.Errorf("invalid log level: %s", rootConfiguration.logLevel)
		}
		c.LogLevel = level
	}

	// Create the logger.
	logger := logging.NewLogger(c.LogLevel, os.Stderr)

	// Start profiling if requested.
	var p *profile.Profile
	if rootConfiguration.profile != "" {
		if p, err = profile.New(rootConfiguration.profile, logger.Sublogger("profile")); err != nil {
			return nil, errors.Wrap(err, "unable to start profiling")
		}
	}

	// Success.
	return &invocation{
		configuration: c,
		logger:        logger,
		profile:       p,
	}, nil
}

// end finalizes profiling, if active.
func (i *invocation) end() {
	if i.profile != nil {
		must.Finalize(i.profile, i.logger)
	}
}

// newEngine creates an engine using the effective configuration.
func (i *invocation) newEngine() *rsync.Engine {
	return rsync.NewEngine(
		i.configuration.WeakHash,
		i.configuration.StrongHash,
		i.configuration.Parallelism,
		i.logger.Sublogger("engine"),
	)
}

// applyCompressionOverride applies a --compression flag value if it was set
// explicitly.
func (i *invocation) applyCompressionOverride(flags *pflag.FlagSet, value compression.Algorithm) {
	if flags.Changed("compression") {
		i.configuration.Compression = value
	}
}

// readFile reads an input file completely.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}
	return data, nil
}

// writeOutput atomically writes an output file, logging the number of bytes
// written.
func writeOutput(path string, permissions os.FileMode, logger *logging.Logger, write func(io.Writer) error) (uint64, error) {
	var written uint64
	err := filesystem.WriteAtomic(path, permissions, logger, func(writer io.Writer) error {
		return write(stream.NewCountingWriter(writer, &written))
	})
	if err != nil {
		return 0, errors.Wrapf(err, "unable to write %s", path)
	}
	return written, nil
}
