package main

import (
	"bufio"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/rolldiff/rolldiff/cmd"
	"github.com/rolldiff/rolldiff/pkg/compression"
	"github.com/rolldiff/rolldiff/pkg/logging"
	"github.com/rolldiff/rolldiff/pkg/must"
	"github.com/rolldiff/rolldiff/pkg/rsync"
)

// readSignature loads a signature artifact from disk.
func readSignature(path string, logger *logging.Logger) (*rsync.Signature, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open signature")
	}
	defer must.Close(file, logger)
	signature, err := rsync.DecodeSignature(bufio.NewReader(file))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode signature (%s)", path)
	}
	return signature, nil
}

// newDeltaDecoder creates a delta decoder, annotating header failures with the
// delta path.
func newDeltaDecoder(source io.Reader, path string) (*rsync.DeltaDecoder, error) {
	decoder, err := rsync.NewDeltaDecoder(source)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode delta (%s)", path)
	}
	return decoder, nil
}

// deltaMain is the entry point for the delta command.
func deltaMain(command *cobra.Command, arguments []string) error {
	// Set up the invocation.
	invocation, err := begin()
	if err != nil {
		return err
	}
	defer invocation.end()
	logger := invocation.logger.Sublogger("delta")
	invocation.applyCompressionOverride(command.Flags(), deltaConfiguration.compression)
	if err := invocation.configuration.EnsureValid(); err != nil {
		return err
	}

	// Load inputs.
	signature, err := readSignature(arguments[0], logger)
	if err != nil {
		return err
	}
	target, err := readFile(arguments[1])
	if err != nil {
		return err
	}

	// Stream operations directly into the encoder.
	engine := invocation.newEngine()
	defer must.Finalize(engine, logger)
	var statistics rsync.DeltaStatistics
	written, err := writeOutput(arguments[2], 0644, logger, func(writer io.Writer) error {
		encoder, err := rsync.NewDeltaEncoder(writer, engine.TargetHeader(target, signature), invocation.configuration.Compression)
		if err != nil {
			return err
		}
		transmit := func(operation *rsync.Operation) error {
			statistics.Observe(operation)
			return encoder.Encode(operation)
		}
		if err := engine.Deltafy(target, signature, transmit); err != nil {
			return err
		}
		return encoder.Close()
	})
	if err != nil {
		return err
	}
	logger.Infof("Wrote delta of %s (%s copied, %s literal) for %s target",
		humanize.IBytes(written),
		humanize.IBytes(statistics.CopyBytes),
		humanize.IBytes(statistics.LiteralBytes),
		humanize.IBytes(uint64(len(target))),
	)

	// Success.
	return nil
}

// deltaCommand is the delta command.
var deltaCommand = &cobra.Command{
	Use:   "delta <signature-file> <new-file> <delta-file>",
	Short: "Compute the delta from a signature to a new file",
	Args:  cmd.ExactArguments("signature-file", "new-file", "delta-file"),
	Run:   cmd.Mainify(deltaMain),
}

// deltaConfiguration stores configuration for the delta command.
var deltaConfiguration struct {
	// help indicates whether or not to show help information and exit.
	help bool
	// compression is the compression override.
	compression compression.Algorithm
}

func init() {
	// Grab a handle for the command line flags.
	flags := deltaCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&deltaConfiguration.help, "help", "h", false, "Show help information")

	// Wire up encoding flags.
	flags.Var(&deltaConfiguration.compression, "compression", "Specify the artifact compression (none|deflate|zstandard)")
}
